// Package main 是一个最简单的流式发送端：连接服务端，写出指定大小的数据后退出。
//
// 使用方法:
//
//	comclient [-json] [-size n] [-timeout d] [-dns server] <host> <service>
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/favbox/libcom/common/config"
	"github.com/favbox/libcom/common/json"
	"github.com/favbox/libcom/common/wlog"
	"github.com/favbox/libcom/network/dialer"
	"github.com/favbox/libcom/network/dns"
	"github.com/favbox/libcom/network/socket"
)

func main() {
	asJSON := flag.Bool("json", false, "以单行 JSON 输出结果")
	size := flag.Int("size", 50<<20, "写出的字节数")
	timeout := flag.Duration("timeout", socket.Forever, "每次就绪等待的超时，负数表示无限等待")
	dialTimeout := flag.Duration("dial-timeout", 0, "单个候选地址的连接超时，0 表示不限时")
	dnsServer := flag.String("dns", "", "直接查询的 DNS 服务器，为空时使用系统解析器")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [选项] <host> <service>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 || *size <= 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		wlog.SetLevel(wlog.LevelDebug)
	}

	c := dialer.DefaultConnector()
	var opts []config.Option
	if *dialTimeout > 0 {
		opts = append(opts, socket.WithDialTimeout(*dialTimeout))
	}
	if *dnsServer != "" {
		opts = append(opts, socket.WithResolver(dns.NewResolver([]string{*dnsServer}, 0)))
	}
	if len(opts) > 0 {
		c = socket.NewConnector(opts...)
	}

	host, service := flag.Arg(0), flag.Arg(1)
	conn, err := c.ConnectStream(host, service)
	if err != nil {
		wlog.Fatalf("连接失败：%v", err)
	}
	defer conn.Close()
	if !*asJSON {
		fmt.Printf("已连接到 %s\n", conn.RemoteAddr())
	}

	buf := mcache.Malloc(*size)
	defer mcache.Free(buf)

	start := time.Now()
	res, err := socket.Transfer(conn, socket.DirWrite, buf, *timeout)
	report := &json.Report{
		Op:        "write",
		Peer:      net.JoinHostPort(host, service),
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
	fmt.Printf("写出 %d 字节，剩余 %d 字节（%s，耗时 %s）\n", *size-res.Remaining, res.Remaining, res.Reason, report.Elapsed)
	if err != nil {
		fmt.Printf("错误：%v\n", err)
	}
}
