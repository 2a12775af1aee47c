package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadNFTConfigDefaults(t *testing.T) {
	c := LoadNFTConfig()
	assert.Equal(t, int64(1000), c.CreationCostCents)
	assert.Equal(t, int64(100), c.CommissionBasisPoints)
	assert.Equal(t, int64(1000), c.DefaultListPriceCents)
	assert.Equal(t, "admin", c.TreasuryUsername)
	assert.Equal(t, 0, c.DailyLimit)
	assert.Equal(t, 3*time.Second, c.ImageServerTimeout)
	assert.Equal(t, []string{"bored_ape_nft", "mutant_ape_nft", "mutant_ape_official", "nft_assets/mutant_ape"}, c.StatusDirs)
	assert.Equal(t, 500, c.LegacyListingLimit)
}

func TestLoadNFTConfigOverrides(t *testing.T) {
	t.Setenv("NFT_CREATION_COST_CENTS", "2500")
	t.Setenv("NFT_DAILY_LIMIT", "3")
	t.Setenv("NFT_STATUS_DIRS", " a , ,b ")
	t.Setenv("NFT_SERVER_TIMEOUT", "bogus")
	c := LoadNFTConfig()
	assert.Equal(t, int64(2500), c.CreationCostCents)
	assert.Equal(t, 3, c.DailyLimit)
	assert.Equal(t, []string{"a", "b"}, c.StatusDirs)
	assert.Equal(t, 3*time.Second, c.ImageServerTimeout)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestLoadRateLimitConfigBurstAndEvery(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "500ms")
	c := LoadRateLimitConfig()
	assert.Equal(t, 7, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 500*time.Millisecond, c.RefillInterval)
}

func TestLoadQueueConfigPrefersRabbitURL(t *testing.T) {
	t.Setenv("AMQP_URL", "amqp://b/")
	t.Setenv("RABBITMQ_URL", "amqp://a/")
	assert.Equal(t, "amqp://a/", LoadQueueConfig().URL)
}

func TestTelegramEnabled(t *testing.T) {
	assert.False(t, TelegramConfig{Token: "x"}.Enabled())
	assert.True(t, TelegramConfig{Token: "x", ChatID: "1"}.Enabled())
}

func TestLoadRedisConfigHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	rc := LoadRedisConfig()
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.True(t, rc.TLS)
}

func TestParseMethods(t *testing.T) {
	m := parseMethods("get, head,,")
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, m)
}
