package app

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/infrastructure/config"
	"github.com/tetranet/tetrad/infrastructure/db/database"
	"github.com/tetranet/tetrad/infrastructure/db/database/ldb"
	"github.com/tetranet/tetrad/infrastructure/logger"
	"github.com/tetranet/tetrad/infrastructure/os/execenv"
	"github.com/tetranet/tetrad/infrastructure/os/signal"
	"github.com/tetranet/tetrad/util/panics"
	"github.com/tetranet/tetrad/util/profiling"
	"github.com/tetranet/tetrad/version"
)

// desiredGCPercent is the garbage collection target of the node
const desiredGCPercent = 50

type tetradApp struct {
	cfg *config.Config
}

// StartApp starts the tetrad app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize(desiredGCPercent)

	// Load configuration and parse command line. Log levels are set while
	// loading, the log files are attached right after.
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	err = os.MkdirAll(cfg.LogDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating the log directory: %s\n", err)
		return errors.WithStack(err)
	}
	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &tetradApp{cfg: cfg}
	return app.main()
}

func (app *tetradApp) main() error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// signal.ShutdownRequestChannel.
	interrupt := signal.InterruptListener()

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	// Open the database
	databaseContext, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := databaseContext.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Create componentManager and start it. Stored blocks are replayed
	// while it is created.
	componentManager, err := NewComponentManager(app.cfg, databaseContext, interrupt)
	if err != nil {
		log.Errorf("Unable to start tetrad: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down tetrad...")
		componentManager.Stop()
		log.Infof("Tetrad shutdown complete")
	}()

	componentManager.Start()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems.
	<-interrupt
	return nil
}

func openDB(cfg *config.Config) (database.Database, error) {
	dbPath := cfg.DatabaseDir()

	err := os.MkdirAll(dbPath, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	versionFileExists, err := checkDatabaseVersion(dbPath)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading database from '%s'", dbPath)
	db, err := ldb.NewLevelDB(dbPath, cfg.DatabaseCacheSizeMiB)
	if err != nil {
		return nil, err
	}

	if !versionFileExists {
		err = createDatabaseVersionFile(dbPath)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
