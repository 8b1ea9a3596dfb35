package watcher

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"crypto_tracker/internal/market"
	"crypto_tracker/internal/models"
	"crypto_tracker/internal/portfolio"

	"go.uber.org/zap"
)

const (
	sparkWidth      = 14
	chartWidth      = 32
	recentTxs       = 10
	maxSearchHits   = 10
	descriptionSize = 280
)

func (w *Watcher) marker(pct float64) string {
	p := w.theme.Palette()
	if pct >= 0 {
		return p.Up
	}
	return p.Down
}

func (w *Watcher) changeText(pct float64) string {
	return w.marker(pct) + " " + formatPercent(pct)
}

func (w *Watcher) star(id string) string {
	if w.watchlist.IsWatched(id) {
		return "★"
	}
	return "☆"
}

func listingError(res string) string {
	return fmt.Sprintf("⚠️ %s", res)
}

func (w *Watcher) getDashboard(ctx context.Context, st SortState, filter string) string {
	res := w.listing(ctx)
	if !res.HasData {
		if res.Err != "" {
			return listingError(res.Err)
		}
		return "⏳ Loading coins..."
	}

	coins := SortCoins(FilterCoins(res.Data, filter), st)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *Top %d Cryptocurrencies* (sort: %s)\n", len(res.Data), st))
	if filter != "" {
		sb.WriteString(fmt.Sprintf("Filter: `%s` · %d matches\n", filter, len(coins)))
	}
	if res.Err != "" {
		sb.WriteString(fmt.Sprintf("⚠️ Showing cached data: %s\n", res.Err))
	}
	if len(coins) == 0 {
		sb.WriteString("No coins match.")
		return sb.String()
	}

	rows := w.config.DashboardRows
	if rows <= 0 {
		rows = 25
	}

	sb.WriteString("```\n")
	for i, c := range coins {
		if i == rows {
			break
		}
		spark := ""
		if c.SparklineIn7d != nil {
			spark = sparkline(c.SparklineIn7d.Price, sparkWidth)
		}
		sb.WriteString(fmt.Sprintf("%s %3d %-6s %12s %8s %8s %9s %9s %s\n",
			w.star(c.ID),
			c.MarketCapRank,
			strings.ToUpper(c.Symbol),
			formatPrice(c.CurrentPrice),
			formatPercent(c.PriceChangePercentage24h),
			formatPercent(c.Change7d()),
			formatCurrency(c.MarketCap),
			formatCurrency(c.TotalVolume),
			spark))
	}
	sb.WriteString("```")
	if len(coins) > rows {
		sb.WriteString(fmt.Sprintf("\n_%d more, narrow with a filter_", len(coins)-rows))
	}
	sb.WriteString(fmt.Sprintf("\n_Updated %s_", ago(res.UpdatedAt)))
	return sb.String()
}

func (w *Watcher) getCoin(ctx context.Context, id, days string) string {
	id = strings.ToLower(id)
	res := w.loadDetail(ctx, id)
	if res.Key != id || !res.HasData || res.Data == nil {
		if res.Err != "" {
			return listingError(res.Err)
		}
		return "Coin not found"
	}
	coin := res.Data
	md := coin.MarketData
	price := md.CurrentPrice.USD

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *%s* (%s) · Rank #%d\n", w.star(coin.ID), coin.Name, strings.ToUpper(coin.Symbol), coin.MarketCapRank))
	sb.WriteString(fmt.Sprintf("Price: *%s*  %s (24h)\n", formatPrice(price), w.changeText(md.PriceChangePercentage24h)))
	sb.WriteString(fmt.Sprintf("7d %s · 30d %s · 1y %s\n",
		formatPercent(md.PriceChangePercentage7d),
		formatPercent(md.PriceChangePercentage30d),
		formatPercent(md.PriceChangePercentage1y)))

	// Chart
	chart := w.loadChart(ctx, id, days)
	label := rangeLabel(days)
	if chart.HasData && chart.Data != nil && len(chart.Data.Prices) > 0 {
		closes := chart.Data.Closes()
		first, last := closes[0], closes[len(closes)-1]
		lo, hi := first, first
		for _, p := range closes {
			lo = min(lo, p)
			hi = max(hi, p)
		}
		change := 0.0
		if first > 0 {
			change = (last - first) / first * 100
		}
		sb.WriteString(fmt.Sprintf("\n📈 *%s* %s\n`%s`\nLow %s · High %s\n",
			label, w.changeText(change), sparkline(closes, chartWidth), formatPrice(lo), formatPrice(hi)))
	} else if chart.Err != "" {
		sb.WriteString(fmt.Sprintf("\n📈 %s chart unavailable: %s\n", label, chart.Err))
	}

	sb.WriteString("\n*Market*\n")
	sb.WriteString(fmt.Sprintf("Market Cap: %s\n", formatCurrency(md.MarketCap.USD)))
	sb.WriteString(fmt.Sprintf("Volume (24h): %s\n", formatCurrency(md.TotalVolume.USD)))
	sb.WriteString(fmt.Sprintf("24h Range: %s - %s\n", formatPrice(md.Low24h.USD), formatPrice(md.High24h.USD)))
	sb.WriteString(fmt.Sprintf("ATH: %s (%s)\n", formatPrice(md.ATH.USD), formatPercent(md.ATHChangePercentage.USD)))
	sb.WriteString(fmt.Sprintf("ATL: %s (%s)\n", formatPrice(md.ATL.USD), formatPercent(md.ATLChangePercentage.USD)))
	sb.WriteString(fmt.Sprintf("Circulating: %s\n", supplyText(&md.CirculatingSupply)))
	sb.WriteString(fmt.Sprintf("Max Supply: %s\n", supplyText(md.MaxSupply)))
	if md.FullyDilutedValuation.USD != nil {
		sb.WriteString(fmt.Sprintf("FDV: %s\n", formatCurrency(*md.FullyDilutedValuation.USD)))
	}

	if h, ok := w.ledger.Holding(coin.ID); ok {
		value := h.TotalQuantity.InexactFloat64() * price
		cost := h.CostBasis().InexactFloat64()
		sb.WriteString(fmt.Sprintf("\n💼 You hold %s @ %s · Value %s (%s)\n",
			formatQty(h.TotalQuantity), formatPrice(h.AvgBuyPrice.InexactFloat64()),
			formatPrice(value), formatSignedPrice(value-cost)))
	}

	for _, a := range w.alerts.List() {
		if a.CoinID == coin.ID && !a.Triggered {
			sb.WriteString(fmt.Sprintf("🔔 Alert %s %s\n", a.Condition, formatPrice(a.TargetPrice.InexactFloat64())))
		}
	}

	if desc := firstParagraph(coin.Description.EN, descriptionSize); desc != "" {
		sb.WriteString("\n" + desc + "\n")
	}
	return sb.String()
}

func rangeLabel(days string) string {
	switch days {
	case "1":
		return "24h"
	case "365":
		return "1y"
	}
	return days + "d"
}

func supplyText(v *float64) string {
	if v == nil || *v == 0 {
		return "∞"
	}
	return formatNumber(*v)
}

// firstParagraph strips anchor markup and truncates on a word boundary.
func firstParagraph(s string, limit int) string {
	s, _, _ = strings.Cut(s, "\r\n")
	s, _, _ = strings.Cut(s, "\n")
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	out := strings.TrimSpace(sb.String())
	if len(out) <= limit {
		return out
	}
	cut := strings.LastIndex(out[:limit], " ")
	if cut <= 0 {
		cut = limit
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
	}
	return out[:cut] + "…"
}

func (w *Watcher) getPortfolio(ctx context.Context) string {
	snap := w.ledger.Snapshot()
	res := w.listing(ctx)
	sum := portfolio.Valuate(snap, w.priceMap(res.Data))

	pnl := sum.PnL.InexactFloat64()
	icon := "📈"
	if pnl < 0 {
		icon = "📉"
	}

	var sb strings.Builder
	sb.WriteString("💼 *PORTFOLIO*\n")
	sb.WriteString(fmt.Sprintf("Net Worth: *%s*\n", formatPrice(sum.NetWorth.InexactFloat64())))
	sb.WriteString(fmt.Sprintf("Cash Balance: %s\n", formatPrice(sum.Cash.InexactFloat64())))
	sb.WriteString(fmt.Sprintf("Holdings Value: %s\n", formatPrice(sum.HoldingsValue.InexactFloat64())))
	sb.WriteString(fmt.Sprintf("%s Total P&L: %s (%s)\n", icon, formatSignedPrice(pnl), formatPercent(sum.PnLPct.InexactFloat64())))
	if res.Err != "" {
		sb.WriteString(fmt.Sprintf("⚠️ Prices may be stale: %s\n", res.Err))
	}

	if len(sum.Positions) == 0 {
		sb.WriteString("\nNo holdings yet. Browse /coins to start trading.")
	} else {
		sb.WriteString("\n*Holdings*\n")
		for _, p := range sum.Positions {
			priced := ""
			if !p.Priced {
				priced = " (no live price)"
			}
			sb.WriteString(fmt.Sprintf("• *%s* %s @ %s → %s%s\n  Value %s · P&L %s (%s) · %s%% of holdings\n",
				strings.ToUpper(p.Symbol),
				formatQty(p.TotalQuantity),
				formatPrice(p.AvgBuyPrice.InexactFloat64()),
				formatPrice(p.CurrentPrice.InexactFloat64()),
				priced,
				formatPrice(p.Value.InexactFloat64()),
				formatSignedPrice(p.PnL.InexactFloat64()),
				formatPercent(p.PnLPct.InexactFloat64()),
				p.Allocation.StringFixed(1)))
		}
	}

	if len(snap.Transactions) > 0 {
		sb.WriteString("\n*Recent Transactions*\n")
		for i, tx := range snap.Transactions {
			if i == recentTxs {
				sb.WriteString(fmt.Sprintf("_%d older_\n", len(snap.Transactions)-recentTxs))
				break
			}
			side := "🟢 BUY"
			if tx.Type == models.TxSell {
				side = "🔴 SELL"
			}
			sb.WriteString(fmt.Sprintf("%s %s %s @ %s = %s · %s\n",
				side,
				formatQty(tx.Quantity),
				strings.ToUpper(tx.Symbol),
				formatPrice(tx.Price.InexactFloat64()),
				formatPrice(tx.Total.InexactFloat64()),
				tx.Date.Format("Jan 2 15:04")))
		}
	}
	return sb.String()
}

func (w *Watcher) getWatchlist(ctx context.Context) string {
	ids := w.watchlist.IDs()
	if len(ids) == 0 {
		return "👀 Your watchlist is empty. Star coins with /watch <id>."
	}

	res := w.listing(ctx)
	byID := make(map[string]models.Coin, len(res.Data))
	for _, c := range res.Data {
		byID[c.ID] = c
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👀 *Watchlist* (%d)\n", len(ids)))
	if res.Err != "" {
		sb.WriteString(listingError(res.Err) + "\n")
	}
	var missing []string
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		spark := ""
		if c.SparklineIn7d != nil {
			spark = sparkline(c.SparklineIn7d.Price, sparkWidth)
		}
		sb.WriteString(fmt.Sprintf("★ *%s* %s · %s (24h) · %s (7d) `%s`\n",
			strings.ToUpper(c.Symbol),
			formatPrice(c.CurrentPrice),
			w.changeText(c.PriceChangePercentage24h),
			formatPercent(c.Change7d()),
			spark))
	}
	if len(missing) > 0 {
		sb.WriteString(fmt.Sprintf("_Outside the top %d: %s (see /coin <id>)_", listingPerPage, strings.Join(missing, ", ")))
	}
	return sb.String()
}

func (w *Watcher) getHeatmap(ctx context.Context) string {
	res := w.listing(ctx)
	if !res.HasData {
		if res.Err != "" {
			return listingError(res.Err)
		}
		return "⏳ Loading coins..."
	}

	tiles := BuildHeatmap(res.Data)
	p := w.theme.Palette()

	var sb strings.Builder
	sb.WriteString("🗺️ *Market Heatmap*\n_Bar length represents market cap. Markers represent 24h change._\n```\n")
	for _, t := range tiles {
		sb.WriteString(fmt.Sprintf("%-6s %-6s %-4s %+6.1f%%\n",
			strings.ToUpper(t.Coin.Symbol),
			blockBar(t.Size),
			heatGlyph(t.Bucket, p.Up, p.Down),
			t.Coin.PriceChangePercentage24h))
	}
	sb.WriteString("```")
	return sb.String()
}

func (w *Watcher) getAlerts() string {
	list := w.alerts.List()
	if len(list) == 0 {
		return "🔕 No alerts set. Create one with /alert <id> <above|below> <price>."
	}

	var active, triggered []models.PriceAlert
	for _, a := range list {
		if a.Triggered {
			triggered = append(triggered, a)
		} else {
			active = append(active, a)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 *Active* (%d)\n", len(active)))
	for _, a := range active {
		sb.WriteString(fmt.Sprintf("• `%s` *%s* %s %s · set %s\n",
			shortID(a.ID), strings.ToUpper(a.Symbol), a.Condition,
			formatPrice(a.TargetPrice.InexactFloat64()), ago(a.CreatedAt)))
	}
	if len(triggered) > 0 {
		sb.WriteString(fmt.Sprintf("\n✅ *Triggered* (%d) · /cleartriggered\n", len(triggered)))
		for _, a := range triggered {
			when := ""
			if a.TriggeredAt != nil {
				when = " · " + ago(*a.TriggeredAt)
			}
			sb.WriteString(fmt.Sprintf("• `%s` *%s* Triggered: %s %s%s\n",
				shortID(a.ID), strings.ToUpper(a.Symbol), a.Condition,
				formatPrice(a.TargetPrice.InexactFloat64()), when))
		}
	}
	return sb.String()
}

// shortID is enough of a uuid to address it with /unalert.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (w *Watcher) searchCoins(ctx context.Context, query string) string {
	hits, err := w.provider.SearchCoins(ctx, query)
	if err != nil {
		zap.L().Error("Search failed", zap.String("query", query), zap.Error(err))
		return listingError(err.Error())
	}
	if len(hits) == 0 {
		return fmt.Sprintf("🔍 No results found for '%s'.", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 *Results for '%s'*\n", query))
	for i, c := range hits {
		if i == maxSearchHits {
			break
		}
		rank := "-"
		if c.MarketCapRank > 0 {
			rank = fmt.Sprintf("#%d", c.MarketCapRank)
		}
		sb.WriteString(fmt.Sprintf("- *%s* %s `%s` %s\n", strings.ToUpper(c.Symbol), c.Name, c.ID, rank))
	}
	return sb.String()
}

func (w *Watcher) getHelp() string {
	var sb strings.Builder
	sb.WriteString("📖 *Commands*\n")
	for _, c := range w.Commands() {
		sb.WriteString(fmt.Sprintf("`%s` %s\n", c.Example, c.Description))
	}
	sb.WriteString(fmt.Sprintf("\nChart ranges: %s days", strings.Join(market.ChartRanges, ", ")))
	return sb.String()
}

func alertAdded(a models.PriceAlert) string {
	return fmt.Sprintf("🔔 Alert set: %s %s %s (`%s`)",
		strings.ToUpper(a.Symbol), a.Condition, formatPrice(a.TargetPrice.InexactFloat64()), shortID(a.ID))
}
