package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crypto_tracker/internal/alerts"
	"crypto_tracker/internal/market"
	"crypto_tracker/internal/models"
	"crypto_tracker/internal/portfolio"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

// Commands lists the supported commands for help screens.
func (w *Watcher) Commands() []CommandDoc {
	return append([]CommandDoc(nil), w.commands...)
}

// HandleCommand routes one slash command to its view or mutator and returns the reply.
func (w *Watcher) HandleCommand(ctx context.Context, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case "/ping":
		w.mu.RLock()
		last := w.lastPoll
		w.mu.RUnlock()
		return fmt.Sprintf("Pong 🏓 (up %s, last poll %s)", time.Since(startTime).Round(time.Second), ago(last))
	case "/start", "/help":
		return w.getHelp()
	case "/coins", "/dashboard":
		return w.handleCoinsCommand(ctx, parts)
	case "/coin":
		return w.handleCoinCommand(ctx, parts)
	case "/search":
		if len(parts) < 2 {
			return "Usage: /search <query>"
		}
		return w.searchCoins(ctx, strings.Join(parts[1:], " "))
	case "/buy":
		return w.handleBuyCommand(ctx, parts)
	case "/sell":
		return w.handleSellCommand(ctx, parts)
	case "/portfolio":
		return w.getPortfolio(ctx)
	case "/watch":
		if len(parts) < 2 {
			return "Usage: /watch <id>"
		}
		id := strings.ToLower(parts[1])
		if w.watchlist.Toggle(ctx, id) {
			return fmt.Sprintf("★ Added %s to watchlist", id)
		}
		return fmt.Sprintf("☆ Removed %s from watchlist", id)
	case "/watchlist":
		return w.getWatchlist(ctx)
	case "/heatmap":
		return w.getHeatmap(ctx)
	case "/alert":
		return w.handleAlertCommand(ctx, parts)
	case "/alerts":
		return w.getAlerts()
	case "/unalert":
		if len(parts) < 2 {
			return "Usage: /unalert <id>"
		}
		if w.alerts.Remove(ctx, parts[1]) {
			return "🗑️ Alert deleted"
		}
		return fmt.Sprintf("⚠️ No single alert matches '%s'. See /alerts.", parts[1])
	case "/cleartriggered":
		n := w.alerts.ClearTriggered(ctx)
		return fmt.Sprintf("🧹 Cleared %d triggered alert(s)", n)
	case "/theme":
		return fmt.Sprintf("🎨 Theme: %s", w.theme.Toggle(ctx))
	default:
		return "Unknown command. Try /coins, /coin, /portfolio, /watchlist, /heatmap, /alerts or /help."
	}
}

// handleCoinsCommand parses /coins [field] [asc|desc] [filter...].
// Naming the current field again without a direction flips it.
func (w *Watcher) handleCoinsCommand(ctx context.Context, parts []string) string {
	args := parts[1:]

	w.mu.Lock()
	st := w.sort
	if len(args) > 0 {
		if f, ok := sortFields[strings.ToLower(args[0])]; ok {
			args = args[1:]
			if len(args) > 0 && isDirection(args[0]) {
				st = SortState{Field: f, Desc: strings.EqualFold(args[0], "desc")}
				args = args[1:]
			} else {
				st = st.Select(f)
			}
		}
	}
	w.sort = st
	w.mu.Unlock()

	return w.getDashboard(ctx, st, strings.Join(args, " "))
}

func isDirection(s string) bool {
	return strings.EqualFold(s, "asc") || strings.EqualFold(s, "desc")
}

func (w *Watcher) handleCoinCommand(ctx context.Context, parts []string) string {
	if len(parts) < 2 {
		return "Usage: /coin <id> [1|7|30|365]"
	}
	days := "7"
	if len(parts) > 2 {
		days = parts[2]
		if !market.ValidRange(days) {
			return fmt.Sprintf("⚠️ Range must be one of %s days", strings.Join(market.ChartRanges, ", "))
		}
	}
	return w.getCoin(ctx, parts[1], days)
}

func parsePositive(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func (w *Watcher) handleBuyCommand(ctx context.Context, parts []string) string {
	if len(parts) < 3 {
		return "Usage: /buy <id> <qty>"
	}
	qty, ok := parsePositive(parts[2])
	if !ok {
		return "⚠️ Quantity must be a positive number"
	}

	q, err := w.quote(ctx, parts[1])
	if err != nil {
		return fmt.Sprintf("⚠️ %v", err)
	}
	if q.Price <= 0 {
		return fmt.Sprintf("⚠️ No live price for %s", q.ID)
	}

	ok = w.ledger.Buy(ctx, portfolio.BuyOrder{
		CoinID:   q.ID,
		Symbol:   q.Symbol,
		Name:     q.Name,
		Image:    q.Image,
		Quantity: qty,
		Price:    decimal.NewFromFloat(q.Price),
	})
	if !ok {
		return "Insufficient balance"
	}
	return fmt.Sprintf("Bought %s %s!", formatQty(qty), strings.ToUpper(q.Symbol))
}

func (w *Watcher) handleSellCommand(ctx context.Context, parts []string) string {
	if len(parts) < 3 {
		return "Usage: /sell <id> <qty>"
	}
	id := strings.ToLower(parts[1])

	var qty decimal.Decimal
	if strings.EqualFold(parts[2], "all") {
		h, held := w.ledger.Holding(id)
		if !held {
			return "Insufficient quantity"
		}
		qty = h.TotalQuantity
	} else {
		var ok bool
		if qty, ok = parsePositive(parts[2]); !ok {
			return "⚠️ Quantity must be a positive number"
		}
	}

	// Sell at the listing price like the portfolio view, falling back to the detail price
	price := w.priceMap(w.listing(ctx).Data)[id]
	if price <= 0 {
		q, err := w.quote(ctx, id)
		if err != nil {
			return fmt.Sprintf("⚠️ %v", err)
		}
		price = q.Price
	}
	if price <= 0 {
		return fmt.Sprintf("⚠️ No live price for %s", id)
	}

	if !w.ledger.Sell(ctx, id, qty, decimal.NewFromFloat(price)) {
		return "Insufficient quantity"
	}
	return "Sold successfully!"
}

// handleAlertCommand parses /alert <id> <above|below> <price>.
func (w *Watcher) handleAlertCommand(ctx context.Context, parts []string) string {
	if len(parts) < 4 {
		return "Usage: /alert <id> <above|below> <price>"
	}
	cond := models.Condition(strings.ToLower(parts[2]))
	if !cond.Valid() {
		return "⚠️ Condition must be 'above' or 'below'"
	}
	target, ok := parsePositive(strings.TrimPrefix(parts[3], "$"))
	if !ok {
		return "⚠️ Target price must be a positive number"
	}

	q, err := w.quote(ctx, parts[1])
	if err != nil {
		return fmt.Sprintf("⚠️ %v", err)
	}

	a, err := w.alerts.Add(ctx, alerts.NewAlert{
		CoinID:      q.ID,
		Symbol:      q.Symbol,
		Name:        q.Name,
		TargetPrice: target,
		Condition:   cond,
	})
	if err != nil {
		zap.L().Error("Failed to add alert", zap.Error(err))
		return fmt.Sprintf("⚠️ %v", err)
	}
	return alertAdded(a)
}
