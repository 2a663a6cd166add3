package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/nana-tokenizers/nana/cmd"
	"github.com/nana-tokenizers/nana/envconfig"
)

func main() {
	if err := cmd.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}

	// pick up anything the .env files set
	envconfig.LoadConfig()

	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
