package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/infra/config"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

type deps struct {
	loadConfig func() (*config.AppConfig, error)
	initLogger func(*config.AppConfig) io.Closer
	newBot     func(telebot.Settings) (*telebot.Bot, error)
}

type application struct {
	bot       *telebot.Bot
	poller    *app.PollService
	scheduler *scheduler.PollScheduler
	logSink   io.Closer
}

func main() {
	// Until the configuration is read, log to the default file so that a
	// missing token is recorded there as well.
	bootSink := logger.Init(config.Defaults())

	a, err := build(deps{
		loadConfig: config.Load,
		initLogger: logger.Init,
		newBot:     telebot.NewBot,
	})
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not start: missing or invalid configuration. Program stopped")
	}
	if bootSink != nil {
		bootSink.Close()
	}
	if a.logSink != nil {
		defer a.logSink.Close()
	}

	a.start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	a.stop()
}

// build checks the configuration first and returns before any client exists
// if it is incomplete. Nothing here touches the network.
func build(d deps) (*application, error) {
	cfg, err := d.loadConfig()
	if err != nil {
		return nil, err
	}
	logSink := d.initLogger(cfg)

	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":     cfg.LogLevel,
		"environment":   cfg.Environment,
		"chat_id":       cfg.TelegramChatID,
		"poll_interval": cfg.PollInterval.String(),
	}).Info("Configuration loaded")

	bot, err := d.newBot(botSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}

	apiClient := practicum.NewClient(cfg.PracticumEndpoint, cfg.PracticumToken, cfg.HTTPTimeout, logger.Component("practicum"))
	notifier := app.NewNotifier(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID, cfg.TelegramRatePerSec, logger.Component("notifier"))
	pollService := app.NewPollService(
		apiClient,
		notifier,
		logger.Component("poller"),
		app.InitialWatermark(time.Now(), cfg.InitialLookback),
	)

	telegram.RegisterBotCommands(bot, cfg.TelegramChatID, pollService, logger.Component("telegram"))

	return &application{
		bot:       bot,
		poller:    pollService,
		scheduler: scheduler.NewPollScheduler(pollService, cfg.PollInterval, logger.Component("scheduler")),
		logSink:   logSink,
	}, nil
}

// botSettings builds the bot offline: getMe is not called at construction,
// so an unreachable Telegram API cannot stop the poller from starting.
func botSettings(cfg *config.AppConfig) telebot.Settings {
	return telebot.Settings{
		Token:   cfg.TelegramToken,
		Offline: true,
		Poller:  &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
}

func (a *application) start() {
	a.scheduler.Start()

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go a.bot.Start()
	go checkTelegram(a.bot, logger.Component("telegram"))
	logger.Component("main").Info("Application setup complete. Bot and poller are running.")
}

func (a *application) stop() {
	mainLogger := logger.Component("main")
	mainLogger.Info("Shutting down application...")
	a.scheduler.Stop()
	a.bot.Stop()
	mainLogger.Info("Application shut down gracefully.")
}

// checkTelegram reports whether the token works. Failure is only logged.
func checkTelegram(bot *telebot.Bot, logCtx *logrus.Entry) {
	if _, err := bot.Raw("getMe", map[string]string{}); err != nil {
		logCtx.WithError(err).Warn("Telegram API is not reachable yet, notifications will fail until it is")
		return
	}
	logCtx.Info("Telegram API reachable")
}
