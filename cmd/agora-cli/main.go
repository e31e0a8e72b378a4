package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mithrel/agora/internal/cli"
	"github.com/mithrel/agora/internal/forumapi"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if forumapi.IsStatus(err, http.StatusUnauthorized) {
			fmt.Fprintln(os.Stderr, "Hint: set auth.token in the config or pass --token")
		}
		os.Exit(1)
	}
}
