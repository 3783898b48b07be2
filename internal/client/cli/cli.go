package cli

import (
	"fmt"

	"github.com/pollwatch/devicebind/internal/client/api"
	"github.com/pollwatch/devicebind/internal/client/iocli"
	"github.com/pollwatch/devicebind/internal/client/storage"
	"github.com/pollwatch/devicebind/internal/fingerprint"
)

// Cli объединяет зависимости клиентских команд
type Cli struct {
	io        iocli.IO
	apiClient *api.Client
	auth      storage.AuthStorage
	device    storage.DeviceStorage
	signals   fingerprint.SignalSource
}

// New создает CLI с переданными зависимостями
func New(io iocli.IO, apiClient *api.Client, auth storage.AuthStorage, device storage.DeviceStorage, signals fingerprint.SignalSource) *Cli {
	return &Cli{
		io:        io,
		apiClient: apiClient,
		auth:      auth,
		device:    device,
		signals:   signals,
	}
}

func PrintUsage() {
	fmt.Println("PollWatch Observer Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pollwatch [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version        Show version information")
	fmt.Println("  --server URL     Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH        Path to local database (default: pollwatch-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register         Register new observer account")
	fmt.Println("  login            Login to server (verifies this device)")
	fmt.Println("  reset            Request re-binding of the account to this device")
	fmt.Println("  status           Show session, device and reset request status")
	fmt.Println("  logout           Logout from server")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pollwatch register")
	fmt.Println("  pollwatch login")
	fmt.Println("  pollwatch --server https://example.com login")
	fmt.Println("  pollwatch reset")
	fmt.Println("  pollwatch status")
}
