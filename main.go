// dprl trains a Vanilla Policy Gradient agent on a selected environment
// and records the run's metrics, checkpoints, and plots. Checkpointed
// policies can be replayed with rendering through the replay
// subcommand.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lgandara/dprl/agent/policy"
	"github.com/lgandara/dprl/agent/vpg"
	"github.com/lgandara/dprl/config"
	"github.com/lgandara/dprl/environment"
	"github.com/lgandara/dprl/environment/classiccontrol/cartpole"
	"github.com/lgandara/dprl/environment/flappybird"
	"github.com/lgandara/dprl/experiment"
	"github.com/lgandara/dprl/experiment/checkpointer"
	"github.com/lgandara/dprl/experiment/plotter"
	"github.com/lgandara/dprl/experiment/tracker"
	"github.com/lgandara/dprl/initwfn"
	"github.com/lgandara/dprl/network"
	"github.com/lgandara/dprl/solver"
)

var (
	cfg        *config.Config
	configFile string
	fromCkpt   string

	replayCfg    *config.Config
	replayGreedy bool
)

var rootCmd = &cobra.Command{
	Use:   "dprl",
	Short: "Train a Vanilla Policy Gradient agent",
	Long: `Trains a stochastic softmax policy with the Vanilla Policy Gradient
method against the selected environment. Each epoch collects full
episodes, weights every timestep with the selected advantage
expression, and applies one optimizer step.`,
	RunE: runTrain,
}

func init() {
	cfg = config.Default()

	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.Flags().StringVar(&fromCkpt, "from-checkpoint", "",
		"Checkpoint file to load policy weights from before training")

	rootCmd.Flags().StringVar(&cfg.Environment, "environment",
		cfg.Environment, "Environment to train on (cartpole, flappybird)")
	rootCmd.Flags().IntVar(&cfg.Epochs, "epochs", cfg.Epochs,
		"Number of epochs to train for")
	rootCmd.Flags().Float64Var(&cfg.LR, "lr", cfg.LR, "Learning rate")
	rootCmd.Flags().IntVar(&cfg.HiddenLayerUnits, "hidden-layer-units",
		cfg.HiddenLayerUnits, "Number of units in the hidden layer")
	rootCmd.Flags().StringVar(&cfg.AdvantageExpression,
		"advantage-expression", cfg.AdvantageExpression,
		"Advantage expression to use (total_reward, reward_to_go, baselined)")
	rootCmd.Flags().IntVar(&cfg.EpisodesPerEpoch, "episodes-per-epoch",
		cfg.EpisodesPerEpoch, "Episodes to collect per epoch")
	rootCmd.Flags().IntVar(&cfg.MaxEpisodeSteps, "max-episode-steps",
		cfg.MaxEpisodeSteps, "Step budget per episode (0 for none)")
	rootCmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	rootCmd.Flags().BoolVar(&cfg.ProgressBar, "progress-bar",
		cfg.ProgressBar, "Show a progress bar")
	rootCmd.Flags().IntVar(&cfg.TableLogFreq, "table-log-freq",
		cfg.TableLogFreq, "Log a metrics record every N epochs (0 disables)")
	rootCmd.Flags().StringVar(&cfg.RunDir, "run-dir", cfg.RunDir,
		"Base directory for run artifacts")
	rootCmd.Flags().IntVar(&cfg.CheckpointEvery, "checkpoint-every",
		cfg.CheckpointEvery, "Checkpoint policy every N epochs (0 disables)")

	// Bind flags to viper for environment variable support
	viper.BindPFlags(rootCmd.Flags())
	viper.SetEnvPrefix("DPRL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	replayCfg = config.Default()

	replayCmd.Flags().StringVar(&replayCfg.Environment, "environment",
		replayCfg.Environment,
		"Environment to replay on (cartpole, flappybird)")
	replayCmd.Flags().IntVar(&replayCfg.HiddenLayerUnits,
		"hidden-layer-units", replayCfg.HiddenLayerUnits,
		"Number of units in the hidden layer of the checkpointed policy")
	replayCmd.Flags().IntVar(&replayCfg.MaxEpisodeSteps, "max-episode-steps",
		replayCfg.MaxEpisodeSteps, "Step budget for the episode (0 for none)")
	replayCmd.Flags().Int64Var(&replayCfg.Seed, "seed", replayCfg.Seed,
		"Random seed")
	replayCmd.Flags().BoolVar(&replayGreedy, "greedy", false,
		"Take the most probable action instead of sampling")

	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <checkpoint>",
	Short: "Roll out one rendered episode of a checkpointed policy",
	Long: `Loads policy weights from a checkpoint file and rolls out a single
episode against the selected environment without training, rendering
every state to standard output. The policy network architecture must
match the one the checkpoint was trained with.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runTrain(cmd *cobra.Command, args []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Logger()

	// Layer config file and environment under any explicitly set flags
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config file: %v", err)
		}
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("could not unmarshal configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	mode, err := cfg.AdvantageMode()
	if err != nil {
		return err
	}

	runDir, err := experiment.NewRunDir(cfg.RunDir)
	if err != nil {
		return err
	}
	log.Info().
		Str("run_dir", runDir).
		Str("environment", cfg.Environment).
		Int("epochs", cfg.Epochs).
		Float64("lr", cfg.LR).
		Int("hidden_layer_units", cfg.HiddenLayerUnits).
		Stringer("advantage_expression", mode).
		Msg("starting training run")

	env, err := newEnvironment(cfg.Environment, uint64(cfg.Seed))
	if err != nil {
		return err
	}

	adam, err := solver.NewDefaultAdam(cfg.LR, 1)
	if err != nil {
		return err
	}
	glorot, err := initwfn.NewGlorotN(math.Sqrt(2.0), uint64(cfg.Seed))
	if err != nil {
		return err
	}

	agentConfig := vpg.Config{
		PolicyLayers:      []int{cfg.HiddenLayerUnits},
		PolicyBiases:      []bool{true},
		PolicyActivations: []*network.Activation{network.ReLU()},
		InitWFn:           glorot,
		Solver:            adam,
		AdvantageMode:     mode,
		EpisodesPerEpoch:  cfg.EpisodesPerEpoch,
		MaxEpisodeSteps:   cfg.MaxEpisodeSteps,
	}

	agent, err := vpg.New(env, agentConfig, cfg.Seed)
	if err != nil {
		return err
	}
	defer agent.Close()

	if fromCkpt != "" {
		if err := checkpointer.Load(fromCkpt, agent.Policy().Network()); err != nil {
			return err
		}
		log.Info().Str("checkpoint", fromCkpt).Msg("loaded policy weights")
	}

	var check *checkpointer.NStep
	if cfg.CheckpointEvery > 0 {
		check, err = checkpointer.NewNStep(agent.Policy().Network(),
			filepath.Join(runDir, "checkpoints"), cfg.CheckpointEvery)
		if err != nil {
			return err
		}
	}

	returns := tracker.NewReturn(filepath.Join(runDir, "returns.bin"))
	losses := tracker.NewLoss(filepath.Join(runDir, "losses.bin"))
	logger := experiment.NewTrainingLogger(os.Stderr, cfg.Epochs,
		cfg.ProgressBar, cfg.TableLogFreq)

	exp := experiment.NewEpochs(agent, env, cfg.Epochs, logger,
		[]tracker.Tracker{returns, losses}, check)

	if err := exp.Run(); err != nil {
		return err
	}
	if err := exp.Save(); err != nil {
		return err
	}

	if err := checkpointer.Save(filepath.Join(runDir, "policy-final.ckpt"),
		agent.Policy().Network()); err != nil {
		return err
	}
	if cfg.Epochs > 1 {
		err = plotter.Line(filepath.Join(runDir, "returns.png"),
			"return per epoch", returns.Data())
		if err != nil {
			return err
		}
	}

	log.Info().Str("run_dir", runDir).Msg("training run finished")
	return nil
}

// newEnvironment constructs the environment the configuration selects
func newEnvironment(name string, seed uint64) (environment.Environment,
	error) {
	switch name {
	case config.Cartpole:
		env, _ := cartpole.NewDefault(seed)
		return env, nil

	case config.FlappyBird:
		env, _ := flappybird.NewDefault(seed)
		return env, nil

	default:
		return nil, fmt.Errorf("unknown environment %q", name)
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Logger()

	env, err := newEnvironment(replayCfg.Environment,
		uint64(replayCfg.Seed))
	if err != nil {
		return err
	}

	glorot, err := initwfn.NewGlorotN(math.Sqrt(2.0), uint64(replayCfg.Seed))
	if err != nil {
		return err
	}
	pol, err := policy.NewCategoricalMLP(env, 1,
		[]int{replayCfg.HiddenLayerUnits}, []bool{true},
		[]*network.Activation{network.ReLU()}, glorot, replayCfg.Seed)
	if err != nil {
		return err
	}
	defer pol.Close()

	if err := checkpointer.Load(args[0], pol.Network()); err != nil {
		return err
	}
	log.Info().
		Str("checkpoint", args[0]).
		Str("environment", replayCfg.Environment).
		Bool("greedy", replayGreedy).
		Msg("replaying checkpointed policy")

	var actor vpg.Actor = pol
	if replayGreedy {
		actor = policy.Greedy{CategoricalMLP: pol}
	}

	episodeReturn, steps, err := experiment.Replay(actor, env,
		replayCfg.MaxEpisodeSteps, os.Stdout)
	if err != nil {
		return err
	}

	log.Info().
		Float64("return", episodeReturn).
		Int("steps", steps).
		Msg("episode finished")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
