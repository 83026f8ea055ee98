package main

import (
	"os"

	"go.uber.org/zap"
)

func main() {
	// replaced by the configured logger once flags and config are loaded
	zap.ReplaceGlobals(zap.Must(zap.NewDevelopment()))

	root, a := newRootCmd()
	err := root.Execute()
	if err != nil {
		zap.L().Error("heightval failed", zap.Error(err))
	}
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
