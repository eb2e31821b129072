// Package network 定义套接字传输层的公共类型：地址族、套接字类型、候选地址与解析器。
//
// 具体实现位于子包：
//  1. socket 负责建立连接、绑定监听，以及带超时的定长非阻塞读写。
//  2. dns 提供直连 DNS 服务器的解析器实现。
//  3. dialer 提供进程级默认连接器。
package network
