package baseapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/internal/config"
	"github.com/causewayhq/causeway/payment"
)

var (
	DiscordEnabled = config.GenFlag("integrations.discord.enabled", false, "Enable Discord notifications. If checked, you must provide a bot token and channel.")

	DiscordToken = config.GenFlag("integrations.discord.token", "", "Discord token for bot")

	DonationChannel = config.GenFlag("integrations.discord.donation_channel", "", "Discord channel to announce new donations")
)

func (s *BaseAPI) initDiscord(ctx context.Context) error {
	if !DiscordEnabled.Value() {
		return nil
	}

	discord, err := discordgo.New("Bot " + DiscordToken.Value())
	if err != nil {
		return fmt.Errorf("could not connect to Discord: %w", err)
	}
	s.dSess = discord

	if err := s.dSess.Open(); err != nil {
		return fmt.Errorf("could not open gateway: %w", err)
	}
	return nil
}

// NotifyDonation announces a successful donation to the configured channel.
// Best-effort: failures are logged, never surfaced to the donor.
func (s *BaseAPI) NotifyDonation(ctx context.Context, req *causeway.DonationRequest, outcome *causeway.PaymentOutcome) {
	if s.dSess == nil || !DiscordEnabled.Value() || DonationChannel.Value() == "" {
		return
	}

	kind := "one-time"
	if req.Frequency == causeway.FrequencyMonthly {
		kind = "monthly"
	}
	msg := fmt.Sprintf("New %s donation of %s %s from %s",
		kind, outcome.Amount.StringFixed(2), payment.Currency.Value(), req.DonorName())
	if _, err := s.dSess.ChannelMessageSend(DonationChannel.Value(), msg); err != nil {
		slog.WarnContext(ctx, "Couldn't announce donation to Discord", slog.Any("err", err))
	}
}
