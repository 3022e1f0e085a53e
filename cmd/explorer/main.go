package main

import (
	"context"
	"log"
	"os"
)

func main() {
	ctx := context.Background()
	app := newApp(ctx)
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}
