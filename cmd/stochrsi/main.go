package main

import (
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/cmd"
)

func main() {
	cmd.Execute()
}
