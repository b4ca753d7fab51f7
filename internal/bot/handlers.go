// =================================
// File: internal/bot/handlers.go
// =================================
package bot

import (
	"context"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"solana-wallet-report/internal/export"
	"solana-wallet-report/internal/logger"
	"solana-wallet-report/internal/wallet"
)

const (
	welcomeMessage    = "🤖 Send me a Solana wallet address and I will build a trade report."
	workingMessage    = "📊 Building the report, this can take a moment..."
	invalidAddressMsg = "Please send a valid Solana wallet address."
	noActivityMsg     = "No trading activity found for this wallet in the lookback window."
	providerDownMsg   = "⚠️ Could not reach the transaction provider, please try again later."
)

// MessageSender is the outbound slice of the Telegram API.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler routes inbound Telegram updates to the report pipeline or the
// persona chat. All state it needs arrives through the constructor.
type Handler struct {
	sender  MessageSender
	service *ReportService
	persona *PersonaChat
	limiter *rate.Limiter
	opts    ReportOptions
	logger  *logger.Logger
}

func NewHandler(sender MessageSender, service *ReportService, persona *PersonaChat, repliesPerSec int, opts ReportOptions, log *logger.Logger) *Handler {
	if repliesPerSec <= 0 {
		repliesPerSec = 20
	}
	return &Handler{
		sender:  sender,
		service: service,
		persona: persona,
		limiter: rate.NewLimiter(rate.Limit(repliesPerSec), repliesPerSec),
		opts:    opts,
		logger:  log,
	}
}

// HandleUpdate processes one inbound update to completion before returning.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	msg := update.Message
	text := strings.TrimSpace(msg.Text)

	h.logger.Info("📥 Message received",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int64("user_id", msg.From.ID))

	switch {
	case msg.IsCommand():
		h.handleCommand(ctx, msg)
	case wallet.LooksLikeAddress(text):
		h.handleWalletReport(ctx, msg, text)
	default:
		h.handleChat(ctx, msg, text)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.reply(ctx, msg.Chat.ID, welcomeMessage)
	default:
		h.reply(ctx, msg.Chat.ID, "Unknown command. Send a wallet address to get a report.")
	}
}

func (h *Handler) handleWalletReport(ctx context.Context, msg *tgbotapi.Message, address string) {
	if err := wallet.ValidateAddress(address); err != nil {
		h.logger.Warn("Rejected wallet address", zap.Error(err))
		h.reply(ctx, msg.Chat.ID, invalidAddressMsg)
		return
	}

	h.reply(ctx, msg.Chat.ID, workingMessage)

	outcome, err := h.service.GenerateReport(ctx, address, h.opts)
	if err != nil {
		h.logger.LogError("Report generation failed", err,
			zap.String("wallet", address))
		h.reply(ctx, msg.Chat.ID, providerDownMsg)
		return
	}

	if outcome.Transactions == 0 {
		h.reply(ctx, msg.Chat.ID, noActivityMsg)
		return
	}

	if outcome.Partial {
		h.reply(ctx, msg.Chat.ID, "⚠️ "+outcome.Warning)
	}

	h.sendDocument(ctx, msg.Chat.ID, outcome.Path)

	// The artifact is delivered; nothing persists between runs.
	if err := os.Remove(outcome.Path); err != nil {
		h.logger.Warn("Failed to remove report file",
			zap.String("path", outcome.Path), zap.Error(err))
	}
}

func (h *Handler) handleChat(ctx context.Context, msg *tgbotapi.Message, text string) {
	// Persona chat is reserved for configured users; everyone else is
	// steered back to the report flow.
	if h.persona == nil || !h.persona.Known(msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, invalidAddressMsg)
		return
	}

	answer, err := h.persona.Reply(ctx, msg.From.ID, text)
	if err != nil {
		h.logger.LogError("Persona reply failed", err, zap.Int64("user_id", msg.From.ID))
		h.reply(ctx, msg.Chat.ID, "⚠️ The chat model is unavailable, try again.")
		return
	}
	h.reply(ctx, msg.Chat.ID, answer)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := h.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.LogError("Failed to send message", err, zap.Int64("chat_id", chatID))
	}
}

func (h *Handler) sendDocument(ctx context.Context, chatID int64, path string) {
	if err := h.limiter.Wait(ctx); err != nil {
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	if _, err := h.sender.Send(doc); err != nil {
		h.logger.LogError("Failed to send report document", err, zap.Int64("chat_id", chatID))
	}
}

// DefaultReportOptions derives the per-run bounds from configuration.
func DefaultReportOptions(lookbackDays, maxTransactions int, outputDir string) ReportOptions {
	return ReportOptions{
		LookbackDays:    lookbackDays,
		MaxTransactions: maxTransactions,
		OutputDir:       outputDir,
		Format:          export.FormatCSV,
	}
}
