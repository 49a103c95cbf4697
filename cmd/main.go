package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"xray-diagnoser/config"
	"xray-diagnoser/internal/container"
	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/infrastructure/report"
)

var (
	configPath string
	logLevel   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xray-diagnoser",
		Short:         "Оценка CNN-классификаторов рентгеновских снимков лёгких",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "путь к YAML-конфигурации")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "уровень логирования (перекрывает конфигурацию)")

	root.AddCommand(distributionCmd(), evaluateCmd(), trainCmd(), architectureCmd())
	return root
}

func setupLogger(level string) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// bootstrap читает конфигурацию и собирает контейнер
func bootstrap() (*container.Container, error) {
	setupLogger(logLevel)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel == "" {
		setupLogger(cfg.LogLevel)
	}

	return container.New(cfg, os.Stdout)
}

func distributionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribution [model]",
		Short: "Распределение классов по сплитам датасета",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap()
			if err != nil {
				return err
			}
			defer c.Close()

			names := c.Config.ModelNames()
			if len(args) == 1 {
				names = args
			}
			for _, name := range names {
				m, err := c.Config.Model(name)
				if err != nil {
					return err
				}
				if _, err := c.EvaluationService.Distribution(cmd.Context(), m.DatasetRoot, m.Splits); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			return nil
		},
	}
}

func evaluateCmd() *cobra.Command {
	var withTraining bool

	cmd := &cobra.Command{
		Use:   "evaluate [models...]",
		Short: "Оценка моделей на тестовом сплите",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap()
			if err != nil {
				return err
			}
			defer c.Close()

			names := args
			if len(names) == 0 {
				names = c.Config.ModelNames()
			}
			for _, name := range names {
				job, err := c.EvaluationJob(name, withTraining)
				if err != nil {
					return err
				}
				if _, err := c.EvaluationService.Evaluate(cmd.Context(), job); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}

			reports, err := c.Reports.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeSummary(reports)
		},
	}
	cmd.Flags().BoolVar(&withTraining, "train", false, "дообучить модель после оценки")
	return cmd
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train <model>",
		Short: "Обучение модели внешним тренером с политикой checkpoint/LR/early stopping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap()
			if err != nil {
				return err
			}
			defer c.Close()

			m, err := c.Config.Model(args[0])
			if err != nil {
				return err
			}
			job, err := c.TrainingJob(m)
			if err != nil {
				return err
			}
			history, err := c.TrainingService.Train(cmd.Context(), job)
			if err != nil {
				return err
			}
			return c.Writer.WriteTraining(m.Name, history)
		},
	}
}

func architectureCmd() *cobra.Command {
	var dim int

	cmd := &cobra.Command{
		Use:   "architecture",
		Short: "Слои сети, формы выходов и число параметров",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := entity.DefineArchitecture(dim)
			if err != nil {
				return err
			}
			return report.WriteArchitecture(cmd.OutOrStdout(), arch)
		},
	}
	cmd.Flags().IntVar(&dim, "dim", 150, "сторона входного изображения")
	return cmd
}

func writeSummary(reports []*entity.EvaluationReport) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"model", "samples", "accuracy", "f1", "loss", "duration"})
	for _, r := range reports {
		table.Append([]string{
			r.Model,
			fmt.Sprint(r.Samples),
			r.Metrics.Accuracy.String(),
			r.Metrics.F1.String(),
			fmt.Sprintf("%.4f", r.TestLoss),
			r.Duration().Round(time.Millisecond).String(),
		})
	}
	table.Render()
	return nil
}
