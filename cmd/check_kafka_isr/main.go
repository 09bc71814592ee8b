package main

import (
	"context"
	"os"

	"github.com/sni/checkplugins/pkg/check_kafka_isr"
)

func main() {
	os.Exit(check_kafka_isr.Check(context.Background(), os.Stdout, os.Args[1:]))
}
