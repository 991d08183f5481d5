package store

import "fioso/internal/provider"

// domainAliases folds alternate spellings of a domain.
var domainAliases = map[string]string{
	"GROWAGARDEN": DomainGarden,
	"GROWGARDEN":  DomainGarden,
	"BLOXFRUITS":  DomainFruits,
	"BLOX":        DomainFruits,
}

// providerAliases folds alternate spellings of a provider key.
//
//	GAMERSBERG, GAMERSBERG.COM  -> GAMERBERGS
//	GROWAGARDEN, GROWAGARDENGG  -> GROWGARDENGG
//	GROWAGARDEN.GG              -> GROWGARDENGG
//	WIKI                        -> FANDOM
var providerAliases = map[string]string{
	"GAMERSBERG":     ProviderGamersberg,
	"GAMERSBERG.COM": ProviderGamersberg,
	"GROWAGARDEN":    ProviderGrowGarden,
	"GROWAGARDENGG":  ProviderGrowGarden,
	"GROWAGARDEN.GG": ProviderGrowGarden,
	"WIKI":           ProviderFandom,
}

// NormalizeKey trims and uppercases a (domain, provider) pair and folds known
// aliases. Unknown values pass through uppercased.
func NormalizeKey(domain, key string) (string, string) {
	d := provider.Key(domain)
	if norm, ok := domainAliases[d]; ok {
		d = norm
	}
	k := provider.Key(key)
	if norm, ok := providerAliases[k]; ok {
		k = norm
	}
	return d, k
}
