package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/pkg/api"
	"github.com/dixieflatline76/Retouch/pkg/batch"
	"github.com/dixieflatline76/Retouch/ui"
	"github.com/dixieflatline76/Retouch/util/log"
)

func main() {
	// A .env file is only present in development setups
	_ = godotenv.Load()

	versionFlag := flag.Bool("version", false, "print the application version and exit")
	flag.Parse()
	if *versionFlag {
		version := config.AppVersion
		if version == "" {
			version = "dev"
		}
		fmt.Printf("%s %s\n", config.AppName, version)
		return
	}

	locked, err := acquireLock()
	if err != nil {
		log.Fatalf("Failed to check for a running instance: %v", err)
	}
	if !locked {
		fmt.Printf("%s is already running.\n", config.AppName)
		return
	}
	defer releaseLock()

	a := ui.GetInstance()
	if a == nil {
		log.Fatal("No system tray available, exiting")
	}

	batch.LoadPlugin(a)
	server := startMonitorAPI(a)

	a.Start()

	if server != nil {
		server.Stop()
	}
}

// startMonitorAPI serves run status on localhost when the preference is on.
// It returns nil when the monitor API is disabled.
func startMonitorAPI(a *ui.RetouchApp) *api.Server {
	appCfg := config.NewAppConfig(a.GetPreferences())
	if !appCfg.GetMonitorAPIEnabled() {
		return nil
	}

	bp := batch.GetInstance()
	server := api.NewServer(bp.Store())
	server.SetStartRunHandler(bp.StartRunForFolder)
	server.SetCancelRunHandler(bp.CancelRun)
	server.SetOutputDirProvider(bp.OutputDir)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Monitor API stopped: %v", err)
		}
	}()

	return server
}
