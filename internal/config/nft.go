package config

import "time"

// NFTConfig carries the business rules of the NFT catalog.
//
// CreationCostCents is charged on /generate and moved to the treasury.
// CommissionBasisPoints is the treasury cut of every sale (100 = 1%).
// DailyLimit caps generations per user per UTC day; 0 disables the cap.
type NFTConfig struct {
	CreationCostCents     int64
	CommissionBasisPoints int64
	DefaultListPriceCents int64
	TreasuryUsername      string
	DailyLimit            int
	AssetRoot             string
	AssetDirA             string
	AssetDirB             string
	FallbackImagePrefix   string
	ImageServerPortFile   string
	ImageServerTimeout    time.Duration
	StatusDirs            []string
	ProxyDirs             []string
	AddressSalt           string
	LegacyListingLimit    int
	StartingBalanceCents  int64
}

func LoadNFTConfig() NFTConfig {
	return NFTConfig{
		CreationCostCents:     int64(envInt("NFT_CREATION_COST_CENTS", 1000)),
		CommissionBasisPoints: int64(envInt("NFT_COMMISSION_BP", 100)),
		DefaultListPriceCents: int64(envInt("NFT_DEFAULT_LIST_PRICE_CENTS", 1000)),
		TreasuryUsername:      envStr("NFT_TREASURY_USERNAME", "admin"),
		DailyLimit:            envInt("NFT_DAILY_LIMIT", 0),
		AssetRoot:             envStr("NFT_ASSET_ROOT", "."),
		AssetDirA:             envStr("NFT_ASSET_DIR_A", "bored_ape_nft"),
		AssetDirB:             envStr("NFT_ASSET_DIR_B", "mutant_ape_nft"),
		FallbackImagePrefix:   envStr("NFT_FALLBACK_IMAGE_PREFIX", "/public/assets/nft/fallback"),
		ImageServerPortFile:   envStr("NFT_SERVER_PORT_FILE", "nft-server-port.txt"),
		ImageServerTimeout:    envDur("NFT_SERVER_TIMEOUT", 3*time.Second),
		StatusDirs:            envList("NFT_STATUS_DIRS", "bored_ape_nft,mutant_ape_nft,mutant_ape_official,nft_assets/mutant_ape"),
		ProxyDirs:             envList("NFT_PROXY_DIRS", "bored_ape_nft,mutant_ape_nft,mutant_ape_official,bayc_official"),
		AddressSalt:           envStr("ADDRESS_SALT", ""),
		LegacyListingLimit:    envInt("NFT_LEGACY_LISTING_LIMIT", 500),
		StartingBalanceCents:  int64(envInt("CARD_STARTING_BALANCE_CENTS", 100000)),
	}
}
