package main

import (
	"fmt"
	"os"

	"github.com/ostafen/ecsfs/cmd/cmd"
	"github.com/ostafen/ecsfs/internal/env"
)

func main() {
	if len(os.Args) < 2 {
		PrintLogo()
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func PrintLogo() {
	fmt.Println("                 __")
	fmt.Println("  ___  ___ ___  / _|___")
	fmt.Println(" / -_)/ __(_-< |  _(_-<")
	fmt.Println(" \\___|\\___/__/ |_| /__/")
	fmt.Println()
	fmt.Println("ECS150FS volume tool")
	fmt.Println()
	fmt.Printf("Version:   %s\n", env.Version)
	fmt.Printf("Commit:    %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println(" ")
}
