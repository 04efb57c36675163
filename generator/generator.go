package generator

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/bwmarrin/snowflake"
)

func IDbyIP(ip string) uint32 {
	var id uint32
	binary.Read(bytes.NewBuffer(net.ParseIP(ip).To4()), binary.BigEndian, &id)
	return id
}

// NodeByIP maps a host address onto a snowflake node number.
func NodeByIP(ip string) int64 {
	return int64(IDbyIP(ip)) & (1<<snowflake.NodeBits - 1)
}

// HostIP returns the first non-loopback IPv4 address of the host, or "" if there is none.
func HostIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String()
		}
	}

	return ""
}

// RunID returns a fresh id for one scraping run.
func RunID(node int64) (string, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return "", fmt.Errorf("snowflake node %d: %w", node, err)
	}

	return n.Generate().String(), nil
}
