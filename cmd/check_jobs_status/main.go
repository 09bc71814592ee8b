package main

import (
	"context"
	"os"

	"github.com/sni/checkplugins/pkg/check_jobs_status"
)

func main() {
	os.Exit(check_jobs_status.Check(context.Background(), os.Stdout, os.Args[1:]))
}
