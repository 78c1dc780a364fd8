// main is the entry point for the hydrocheck CLI.
package main

import (
	"github.com/huangsam/hydrocheck/cmd"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	iocache.CloseStores()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
