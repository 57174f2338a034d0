package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hitoshi/blogman/internal/app"
)

func main() {
	// .envがあれば読み込む（なくてもエラーにしない）
	_ = godotenv.Load()

	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
