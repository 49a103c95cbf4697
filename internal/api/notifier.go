package telegram

import (
	"context"
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"xray-diagnoser/internal/domain/entity"
	"xray-diagnoser/internal/domain/port"
)

// sender часть BotAPI, которая нужна уведомителю
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет итог оценки в чат Telegram
type Notifier struct {
	api    sender
	chatID int64
}

// NewNotifier авторизуется в Telegram и создаёт уведомитель для чата
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("%w: telegram chat id is required", entity.ErrInvalidConfig)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info().Str("account", api.Self.UserName).Msg("telegram authorized")

	return &Notifier{api: api, chatID: chatID}, nil
}

// Notify отправляет текст отчёта и, если есть, тепловую карту
func (n *Notifier) Notify(ctx context.Context, report *entity.EvaluationReport) error {
	_ = ctx

	msg := tgbotapi.NewMessage(n.chatID, FormatReport(report))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	if report.HeatmapPath == "" {
		return nil
	}
	if _, err := os.Stat(report.HeatmapPath); err != nil {
		log.Warn().Err(err).Str("path", report.HeatmapPath).Msg("heatmap is not available")
		return nil
	}

	photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FilePath(report.HeatmapPath))
	photo.Caption = report.Title
	if _, err := n.api.Send(photo); err != nil {
		return fmt.Errorf("send heatmap: %w", err)
	}
	return nil
}

// FormatReport собирает короткий текст для сообщения
func FormatReport(r *entity.EvaluationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🩻 %s\n", r.Title)
	fmt.Fprintf(&b, "Модель: %s, снимков: %d\n", r.Model, r.Samples)
	fmt.Fprintf(&b, "TN=%d FP=%d FN=%d TP=%d\n", r.Confusion.TN, r.Confusion.FP, r.Confusion.FN, r.Confusion.TP)
	for _, m := range r.Metrics.Named() {
		fmt.Fprintf(&b, "%s: %s\n", m.Title, m.Metric)
	}
	if acc, ok := r.Training.FinalAccuracy(); ok {
		fmt.Fprintf(&b, "Train acc: %.2f%%\n", acc)
	}
	fmt.Fprintf(&b, "run %s", r.RunID)
	return b.String()
}

var _ port.ReportNotifier = (*Notifier)(nil)
