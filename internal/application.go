package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/config"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/play"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/repository"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/service"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-qlearning/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	return run(ctx, logger, conf, os.Stdin, os.Stdout)
}

// run - trains (or restores) the agent, evaluates it and hands it to the console game.
func run(ctx context.Context, logger *slog.Logger, conf *config.Config, in io.Reader, out io.Writer) error {
	log := logger.With("component", "app")

	seed := conf.Training.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Info("random source ready", "seed", seed)
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	recorder := metrics.NewTraining()

	if conf.HTTPPort != "" {
		go func() {
			log.Info("Starting HTTP server", "port", conf.HTTPPort)
			if err := rest.Start(ctx, conf.HTTPPort, recorder.Registry()); err != nil {
				log.Error("HTTP server error", "error", err)
			}
		}()
	}

	var agentRepo repository.AgentRepository
	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		agentRepo = repository.NewAgentRepository(redisStorage)
	}

	agent, restored, err := loadOrCreateAgent(ctx, log, agentRepo, conf, rng)
	if err != nil {
		return err
	}

	bot := service.NewRandomBot(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))
	trainer := usecase.NewTrainer(logger, agent, bot,
		usecase.WithRecorder(recorder),
		usecase.WithLogEvery(conf.Training.LogEvery),
	)

	if !restored {
		stats, trainErr := trainer.Train(ctx, conf.Training.Episodes)
		if trainErr != nil {
			return fmt.Errorf("training failed: %w", trainErr)
		}

		if agentRepo != nil {
			if err = agentRepo.Save(ctx, conf.Agent.Name, agent.Snapshot(stats.Episodes)); err != nil {
				return fmt.Errorf("failed to save agent: %w", err)
			}
			log.Info("agent saved", "name", conf.Agent.Name, "entries", agent.Values().Len())
		}
	}

	if conf.Evaluation.Games > 0 {
		if _, err = trainer.Evaluate(ctx, conf.Evaluation.Games); err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
	}

	if !conf.Play.Enabled {
		return nil
	}

	winner, err := play.NewSession(agent.Greedy(), in, out).Run(ctx)
	if err != nil {
		return fmt.Errorf("game failed: %w", err)
	}
	log.Info("game over", "winner", winner, "agent", agent.Mark())

	return nil
}

// loadOrCreateAgent - reuses the stored agent of the configured name when there is one.
func loadOrCreateAgent(
	ctx context.Context,
	log *slog.Logger,
	agentRepo repository.AgentRepository,
	conf *config.Config,
	rng *rand.Rand,
) (*qlearning.Agent, bool, error) {
	if agentRepo != nil {
		snapshot, err := agentRepo.GetByName(ctx, conf.Agent.Name)
		switch {
		case err == nil:
			agent, restoreErr := qlearning.RestoreAgent(snapshot, rng)
			if restoreErr != nil {
				return nil, false, fmt.Errorf("failed to restore agent %s: %w", conf.Agent.Name, restoreErr)
			}
			log.Info("agent restored", "name", conf.Agent.Name, "episodes", snapshot.Episodes, "entries", agent.Values().Len())
			return agent, true, nil
		case errors.Is(err, repository.ErrAgentNotFound):
			log.Info("no stored agent, training a new one", "name", conf.Agent.Name)
		default:
			return nil, false, fmt.Errorf("failed to load agent: %w", err)
		}
	}

	agent, err := qlearning.NewAgent(conf.Agent.Mark, rng,
		qlearning.WithAlpha(conf.Agent.Alpha),
		qlearning.WithGamma(conf.Agent.Gamma),
		qlearning.WithEpsilon(conf.Agent.Epsilon),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create agent: %w", err)
	}

	return agent, false, nil
}
