package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/thrasher-corp/venuesim/apiserver"
	"github.com/thrasher-corp/venuesim/config"
	"github.com/thrasher-corp/venuesim/encoding/json"
	"github.com/thrasher-corp/venuesim/kline"
	"github.com/thrasher-corp/venuesim/log"
	"github.com/thrasher-corp/venuesim/signaler"
	"github.com/thrasher-corp/venuesim/simulator"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 5 * time.Second

var (
	configPath string
	errNoFile  = errors.New("--file is required")
)

var configFlag = &cli.StringFlag{
	Name:        "config",
	Aliases:     []string{"c"},
	Value:       "config.json",
	Usage:       "the run config file (json, yaml or toml)",
	Destination: &configPath,
}

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.ReadConfigFromFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := log.SetupGlobalLogger(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "replays the configured venues and prints a report",
	Flags: []cli.Flag{
		configFlag,
		&cli.BoolFlag{
			Name:  "hold",
			Usage: "keep the api server running after the replay until interrupted",
		},
	},
	Action: runSimulation,
}

func runSimulation(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, closer, err := cfg.CandleSource(c.Context)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer(); err != nil {
			log.Errorln(log.Global, err)
		}
	}()

	var server *apiserver.Server
	onReady := func(sim *simulator.Simulator) error {
		if !cfg.APIServer.Enabled {
			return nil
		}
		server, err = apiserver.New(sim, cfg.APIServer.ListenAddress)
		if err != nil {
			return err
		}
		_, err = server.Start()
		return err
	}
	r, err := execute(c.Context, cfg, src, onReady)
	if server != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Stop(ctx); err != nil {
				log.Errorln(log.APIServer, err)
			}
		}()
	}
	if err != nil {
		return err
	}
	jsonOutput(r)
	if server != nil && c.Bool("hold") {
		log.Infoln(log.Global, "replay finished, serving until interrupted")
		<-c.Context.Done()
	}
	return nil
}

var sweepCommand = &cli.Command{
	Name:  "sweep",
	Usage: "runs the rsi bot over every permutation of the supplied settings",
	Flags: []cli.Flag{
		configFlag,
		&cli.IntSliceFlag{
			Name:  "rsi-periods",
			Usage: "rsi periods to try, defaults to the configured period",
		},
		&cli.Float64SliceFlag{
			Name:  "rsi-lows",
			Usage: "rsi low thresholds to try",
		},
		&cli.Float64SliceFlag{
			Name:  "rsi-highs",
			Usage: "rsi high thresholds to try",
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: runtime.NumCPU(),
			Usage: "the amount of permutations run at once",
		},
	},
	Action: runSweep,
}

func runSweep(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, closer, err := cfg.CandleSource(c.Context)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer(); err != nil {
			log.Errorln(log.Global, err)
		}
	}()
	space, err := sweepSpace(cfg, c.IntSlice("rsi-periods"), c.Float64Slice("rsi-lows"), c.Float64Slice("rsi-highs"))
	if err != nil {
		return err
	}
	rows, err := executeSweep(c.Context, cfg, src, space, c.Int("workers"))
	if err != nil {
		return err
	}
	jsonOutput(rows)
	return nil
}

var importCommand = &cli.Command{
	Name:  "import",
	Usage: "imports timestamp,volume,open,high,low,close csv candles into the configured database",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringFlag{
			Name:     "venue",
			Usage:    "the venue the candles belong to",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "symbol",
			Usage:    "the venue symbol e.g. BTCUSDT",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: time.Minute,
			Usage: "the candle interval",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "the csv file to import",
		},
		&cli.StringFlag{
			Name:  "source-job",
			Usage: "optional id recorded against every imported row",
		},
	},
	Action: importCandles,
}

func importCandles(c *cli.Context) error {
	if c.String("file") == "" {
		return errNoFile
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, closer, err := cfg.Repository(c.Context)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer(); err != nil {
			log.Errorln(log.DatabaseMgr, err)
		}
	}()
	n, err := repo.InsertFromCSV(c.Context, c.String("venue"), c.String("symbol"), kline.Interval(c.Duration("interval")), c.String("file"), c.String("source-job"))
	if err != nil {
		return err
	}
	log.Infof(log.DatabaseMgr, "imported %d %s %s candles from %s", n, c.String("venue"), c.String("symbol"), c.String("file"))
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "venuesim"
	app.EnableBashCompletion = true
	app.Usage = "deterministic multi venue backtesting simulator"
	app.Commands = []*cli.Command{
		runCommand,
		sweepCommand,
		importCommand,
	}

	ctx, cancel := signaler.WithInterrupt(context.Background())
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
