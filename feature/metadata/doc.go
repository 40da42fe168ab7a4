// Package metadata maintains the cached Scryfall enrichment used to
// join display names, set codes and rarities onto export rows.
//
// The bulk default-cards file is downloaded on a day-granularity
// cadence, cached on disk, and upserted into the card_metadata table.
// Duplicate arena ids prefer main-set printings over promos, then the
// newest release. Refresh failures are logged and tolerated: exports
// simply carry stale or empty enrichment until the next attempt.
package metadata
