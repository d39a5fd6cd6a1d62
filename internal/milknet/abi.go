package milknet

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed milknet.abi.json
var abiJSON string

var (
	parsedOnce sync.Once
	parsedABI  abi.ABI
	parseErr   error
)

// ABI returns the parsed MilkNet contract interface.
func ABI() (abi.ABI, error) {
	parsedOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(abiJSON))
	})
	return parsedABI, parseErr
}

// ABIJSON returns the raw interface definition.
func ABIJSON() string { return abiJSON }
