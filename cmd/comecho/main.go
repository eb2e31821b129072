// Package main 向回显服务发送 "TEST" 并打印读回的内容。
//
// 使用方法:
//
//	comecho [-timeout d] <host> <service>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/favbox/libcom/common/wlog"
	"github.com/favbox/libcom/network/dialer"
	"github.com/favbox/libcom/network/socket"
)

func main() {
	timeout := flag.Duration("timeout", socket.Forever, "每次就绪等待的超时，负数表示无限等待")
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "用法: %s [-timeout d] <host> <service>\n", os.Args[0])
		os.Exit(2)
	}

	conn, err := dialer.ConnectStream(flag.Arg(0), flag.Arg(1))
	if err != nil {
		wlog.Fatalf("连接失败：%v", err)
	}
	defer conn.Close()

	buf := []byte("TEST")
	if remaining, err := conn.Write(buf, *timeout); err != nil || remaining > 0 {
		wlog.Errorf("写入未完成，剩余 %d 字节：%v", remaining, err)
		return
	}
	remaining, err := conn.Read(buf, *timeout)
	if err != nil {
		wlog.Errorf("读取失败：%v", err)
		return
	}
	_, _ = os.Stdout.Write(buf[:len(buf)-remaining])
	fmt.Println()
}
