package main

import (
	"fmt"
	"os"

	"github.com/ostafen/blkpart/cmd/cmd"
	"github.com/ostafen/blkpart/internal/env"
)

func main() {
	PrintLogo()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func PrintLogo() {
	fmt.Fprintln(os.Stderr, " _     _ _                     _   ")
	fmt.Fprintln(os.Stderr, "| |__ | | | ___ __   __ _ _ __| |_ ")
	fmt.Fprintln(os.Stderr, "| '_ \\| | |/ / '_ \\ / _` | '__| __|")
	fmt.Fprintln(os.Stderr, "| |_) | |   <| |_) | (_| | |  | |_ ")
	fmt.Fprintln(os.Stderr, "|_.__/|_|_|\\_\\ .__/ \\__,_|_|   \\__|")
	fmt.Fprintln(os.Stderr, "             |_|                    ")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Partition table resolver for block media")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Version:    %s\n", env.Version)
	fmt.Fprintf(os.Stderr, "Commit:     %s\n", env.CommitHash)
	fmt.Fprintf(os.Stderr, "Build Time: %s\n", env.BuildTime)
	fmt.Fprintln(os.Stderr)
}
