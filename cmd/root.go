package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	coreconfig "github.com/postflow/postflow/core/config"
	"github.com/postflow/postflow/core/database"
	"github.com/postflow/postflow/infrastructure/loopback"
	"github.com/postflow/postflow/infrastructure/valkey"
	"github.com/postflow/postflow/pkg/jobworker"
	"github.com/postflow/postflow/pkg/utils"
	"github.com/postflow/postflow/scheduler/application"
	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/repository"
	"github.com/postflow/postflow/scheduler/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	appConfig *coreconfig.Config

	// Infrastructure
	vkClient *valkey.Client
	jobQueue domain.IDelayedJobQueue

	// Application services
	dispatcher       *application.Dispatcher
	orchestrator     *application.PublishOrchestrator
	recurrenceEngine *application.RecurrenceEngine
	allocator        *application.TimeSlotAllocator
	calculator       *application.OptimalTimeCalculator
	queueWorker      *application.QueueWorker

	schedulingUsecase *usecase.SchedulingUsecase
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "postflow",
	Short: "Scheduled publication engine",
	Long: `Schedules social posts for future publication, drives recurring
series, fills posting queues from weekly time slots and ranks optimal
posting windows from historical engagement.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	rootCmd.PersistentFlags().StringSliceP("basic-auth", "b", nil, "basic auth credential | -b=yourUsername:yourPassword")
	rootCmd.PersistentFlags().String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/postflow"`)
	rootCmd.PersistentFlags().String("db-driver", "", `database driver --db-driver <string> | example: --db-driver=postgres`)
	rootCmd.PersistentFlags().String("db-name", "", `database name (file path for sqlite) --db-name <string> | example: --db-name=storages/postflow.db`)
	rootCmd.PersistentFlags().Bool("valkey-enabled", false, "use valkey for the delayed job queue --valkey-enabled <true/false>")
	rootCmd.PersistentFlags().String("valkey-address", "", `valkey address --valkey-address <string> | example: --valkey-address=localhost:6379`)
	rootCmd.PersistentFlags().String("worker-id", "", `stable worker identity for replica locks --worker-id <string> | example: --worker-id=postflow-1`)

	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("app_basic_auth", rootCmd.PersistentFlags().Lookup("basic-auth"))
	_ = viper.BindPFlag("app_base_path", rootCmd.PersistentFlags().Lookup("base-path"))
	_ = viper.BindPFlag("db_driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("db_name", rootCmd.PersistentFlags().Lookup("db-name"))
	_ = viper.BindPFlag("valkey_enabled", rootCmd.PersistentFlags().Lookup("valkey-enabled"))
	_ = viper.BindPFlag("valkey_address", rootCmd.PersistentFlags().Lookup("valkey-address"))
	_ = viper.BindPFlag("worker_id", rootCmd.PersistentFlags().Lookup("worker-id"))
}

// applyFlagOverrides merges explicitly set flags on top of the
// environment-derived configuration.
func applyFlagOverrides(cfg *coreconfig.Config) {
	if v := viper.GetString("app_port"); v != "" {
		cfg.App.Port = v
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if v := viper.GetStringSlice("app_basic_auth"); len(v) > 0 {
		cfg.App.BasicAuth = v
	}
	if v := viper.GetString("app_base_path"); v != "" {
		cfg.App.BasePath = v
	}
	if v := viper.GetString("db_driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("db_name"); v != "" {
		cfg.Database.Name = v
	}
	if viper.GetBool("valkey_enabled") {
		cfg.Database.ValkeyEnabled = true
	}
	if v := viper.GetString("valkey_address"); v != "" {
		cfg.Database.ValkeyAddress = v
	}
	if v := viper.GetString("worker_id"); v != "" {
		cfg.Worker.ID = v
	}
}

func initApp() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	applyFlagOverrides(cfg)
	appConfig = cfg

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := utils.CreateFolder(cfg.Paths.Storages); err != nil {
		logrus.Errorln(err)
	}

	ctx := context.Background()

	db, err := database.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}

	pubRepo := repository.NewPublicationGormRepository(db)
	queueRepo := repository.NewPostingQueueGormRepository(db)
	optimalRepo := repository.NewOptimalTimeGormRepository(db)
	contentRepo := repository.NewContentGormRepository(db)
	for name, initFn := range map[string]func(context.Context) error{
		"publications":  pubRepo.Init,
		"queues":        queueRepo.Init,
		"optimal times": optimalRepo.Init,
		"content":       contentRepo.Init,
	} {
		if err := initFn(ctx); err != nil {
			logrus.Fatalf("failed to init %s repository: %v", name, err)
		}
	}

	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Fatalf("failed to connect to valkey: %v", err)
		}
		jobQueue = repository.NewValkeyJobQueue(vkClient)
		logrus.Info("[APP] Using valkey delayed job queue")
	} else {
		jobQueue = repository.NewMemoryJobQueue()
		logrus.Info("[APP] Using in-memory delayed job queue (single instance only)")
	}

	adapters := domain.NewAdapterRegistry()
	adapters.Register(loopback.NewAdapter())

	orchestrator = application.NewPublishOrchestrator(pubRepo, contentRepo, contentRepo, adapters, jobQueue)
	dispatcher = application.NewDispatcher(pubRepo, jobQueue, orchestrator)
	recurrenceEngine = application.NewRecurrenceEngine(pubRepo, contentRepo, dispatcher)
	allocator = application.NewTimeSlotAllocator(queueRepo, pubRepo, dispatcher)
	calculator = application.NewOptimalTimeCalculator(contentRepo, optimalRepo)
	queueWorker = application.NewQueueWorker(jobQueue, pubRepo, orchestrator, recurrenceEngine, vkClient, utils.WorkerID(cfg.Worker.ID))
	queueWorker.UsePool(jobworker.NewPool(cfg.Worker.PoolSize, cfg.Worker.PoolQueueSize))
	queueWorker.SetLimits(cfg.Worker.BatchSize, time.Duration(cfg.Worker.SafetyTickMins)*time.Minute)

	schedulingUsecase = usecase.NewSchedulingUsecase(pubRepo, contentRepo, contentRepo, queueRepo, dispatcher, allocator, calculator)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of infrastructure connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")
	if vkClient != nil {
		vkClient.Close()
	}
	logrus.Info("[APP] Application stopped cleanly.")
}

func basicAuthAccounts(credentials []string) map[string]string {
	account := make(map[string]string)
	for _, basicAuth := range credentials {
		ba := strings.Split(basicAuth, ":")
		if len(ba) != 2 {
			logrus.Fatalln("Basic auth is not valid, please this following format <user>:<secret>")
		}
		account[ba[0]] = ba[1]
	}
	return account
}
