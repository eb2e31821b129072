// Package main 是一个最简单的流式接收端：监听端口，接受一个连接，读取数据后退出。
//
// 使用方法:
//
//	comserver [-json] [-size n] <service>
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/favbox/libcom/common/json"
	"github.com/favbox/libcom/common/utils"
	"github.com/favbox/libcom/common/wlog"
	"github.com/favbox/libcom/network/dialer"
	"github.com/favbox/libcom/network/socket"
)

func main() {
	asJSON := flag.Bool("json", false, "以单行 JSON 输出结果")
	size := flag.Int("size", 50<<20, "最多读取的字节数")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [选项] <service>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 || *size <= 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		wlog.SetLevel(wlog.LevelDebug)
	}

	ln, err := dialer.BindStream(flag.Arg(0))
	if err != nil {
		wlog.Fatalf("监听失败：%v", err)
	}
	defer ln.Close()

	if !*asJSON {
		fmt.Printf("在 %s 上等待客户端连接...\n", net.JoinHostPort(utils.LocalIP(), flag.Arg(0)))
	}
	conn, err := socket.Accept(ln, socket.Forever)
	if err != nil {
		wlog.Fatalf("接受连接失败：%v", err)
	}
	defer conn.Close()

	host, service, err := dialer.PeerInfo(conn)
	if err != nil {
		wlog.Warnf("查询对端信息失败：%v", err)
	}
	peer := net.JoinHostPort(host, service)
	if !*asJSON {
		fmt.Printf("客户端已连接：%s\n", peer)
	}

	buf := mcache.Malloc(*size)
	defer mcache.Free(buf)

	start := time.Now()
	res, err := socket.Transfer(conn, socket.DirRead, buf, socket.Forever)
	report := &json.Report{
		Op:        "read",
		Peer:      peer,
		Requested: *size,
		Remaining: res.Remaining,
		Elapsed:   time.Since(start).String(),
		Reason:    res.Reason.String(),
	}
	report.SetError(err)

	if *asJSON {
		if err := json.WriteReport(os.Stdout, report); err != nil {
			wlog.Errorf("输出报告失败：%v", err)
		}
		return
	}
	fmt.Printf("读取 %d 字节（%s，耗时 %s）\n", *size-res.Remaining, res.Reason, report.Elapsed)
	if err != nil {
		fmt.Printf("错误：%v\n", err)
	}
}
