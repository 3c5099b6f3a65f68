package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress 校验十六进制地址并转为 EIP-55 校验和格式
func NormalizeAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("invalid address %q", addr)
	}
	a := common.HexToAddress(addr)
	if a == (common.Address{}) {
		return "", fmt.Errorf("zero address not allowed")
	}
	return a.Hex(), nil
}
