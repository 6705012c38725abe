// Command hashpw prints the bcrypt hash of the organizer password read from
// stdin, ready for ORGANIZER_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Dosada05/tournament-draw/utils"
)

func main() {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		slog.Error("failed to read password from stdin", slog.Any("error", err))
		os.Exit(1)
	}

	hash, err := utils.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		slog.Error("failed to hash password", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(hash)
}
