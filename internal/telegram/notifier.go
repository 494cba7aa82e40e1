package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/config"
	"github.com/camuig/capital-tracker/internal/currency"
	"github.com/camuig/capital-tracker/internal/logger"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	bot     sender
	chatID  int64
	enabled bool
	logger  *logger.Logger
}

func NewNotifier(cfg *config.Config, log *logger.Logger) *Notifier {
	if !cfg.Telegram.Enabled {
		return &Notifier{enabled: false, logger: log}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Error("failed to create telegram bot", "error", err)
		return &Notifier{enabled: false, logger: log}
	}

	log.Info("telegram bot connected", "username", bot.Self.UserName)

	return &Notifier{
		bot:     bot,
		chatID:  cfg.Telegram.ChatID,
		enabled: true,
		logger:  log,
	}
}

func (n *Notifier) Enabled() bool {
	return n.enabled
}

var severityEmoji = map[alerts.Severity]string{
	alerts.SeverityLow:      "ℹ️",
	alerts.SeverityMedium:   "🟡",
	alerts.SeverityHigh:     "🟠",
	alerts.SeverityCritical: "🔴",
}

func (n *Notifier) NotifyAlert(a alerts.Alert) {
	n.send(FormatAlert(a))
}

// NotifyAlerts sends one message per alert.
func (n *Notifier) NotifyAlerts(list []alerts.Alert) {
	for _, a := range list {
		n.NotifyAlert(a)
	}
}

// FormatAlert renders an alert as a Markdown message.
func FormatAlert(a alerts.Alert) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s* %s\n%s", severityEmoji[a.Severity], strings.ToUpper(string(a.Severity)),
		strings.ReplaceAll(string(a.Type), "_", " "), a.Message)
	if a.Action != "" {
		fmt.Fprintf(&sb, "\nAction: `%s`", a.Action)
	}
	return sb.String()
}

// NotifyPortfolio reports the portfolio total in the display currency.
func (n *Notifier) NotifyPortfolio(totalUSD float64, displayCurrency string, fx currency.Converter, change float64) {
	n.send(FormatPortfolio(totalUSD, displayCurrency, fx, change))
}

func FormatPortfolio(totalUSD float64, displayCurrency string, fx currency.Converter, change float64) string {
	emoji := "📉"
	if change >= 0 {
		emoji = "📈"
	}
	return fmt.Sprintf("%s *Portfolio* %s (%+.2f%%)", emoji, currency.FormatUSD(totalUSD, displayCurrency, fx), change*100)
}

func (n *Notifier) NotifyAdvice(text string) {
	n.send("🤖 *Rebalancing note*\n" + text)
}

func (n *Notifier) NotifyError(context string, err error) {
	msg := fmt.Sprintf("⚠️ *Error* [%s]\n%v", context, err)
	n.send(msg)
}

func (n *Notifier) NotifyStatus(message string) {
	n.send(message)
}

func (n *Notifier) send(text string) {
	if !n.enabled {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
	}
}
