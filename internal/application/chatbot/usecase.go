package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jhoicas/tienda-pos/internal/application/dto"
	"github.com/jhoicas/tienda-pos/internal/application/ports"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
)

const (
	llmTimeout   = 10 * time.Second
	listLimit    = 5
	maxMsgLength = 500
)

const helpText = `Puedo responder sobre la tienda. Prueba con:
- "¿qué productos tienen bajo stock?"
- "¿cuáles son los más vendidos?"
- "¿cuál es el valor del inventario?"
- "¿cuánto vendimos hoy?"
- "¿cuál es la ganancia del mes?"
- "¿cuánto cuesta el arroz?"
- "¿cuántos quedan de leche?"`

// Catalog lecturas del catálogo que usa el asistente.
type Catalog interface {
	Search(ctx context.Context, term string, limit int) ([]*entity.Product, error)
	ListLowStock(ctx context.Context, limit int) ([]*entity.Product, error)
}

// Stats lecturas de estadísticas que usa el asistente.
type Stats interface {
	ResolveRange(from, to *time.Time) (dto.DateRange, error)
	TodayRange() dto.DateRange
	Summary(ctx context.Context, r dto.DateRange, fresh bool) (*dto.SalesSummaryDTO, error)
	TopProducts(ctx context.Context, r dto.DateRange, limit int, fresh bool) (*dto.TopProductsDTO, error)
	Inventory(ctx context.Context, fresh bool) (*dto.InventoryValueDTO, error)
}

// UseCase responde preguntas en texto libre con consultas de solo lectura.
type UseCase struct {
	catalog Catalog
	stats   Stats
	llm     ports.LLMService // nil = sin respaldo LLM
	log     zerolog.Logger
}

// NewUseCase construye el asistente. llm puede ser nil.
func NewUseCase(catalog Catalog, stats Stats, llm ports.LLMService, log zerolog.Logger) *UseCase {
	return &UseCase{catalog: catalog, stats: stats, llm: llm, log: log.With().Str("component", "chatbot").Logger()}
}

// Ask detecta la intención y arma la respuesta.
func (uc *UseCase) Ask(ctx context.Context, message string) (*dto.ChatbotResponse, error) {
	message = truncateRunes(message, maxMsgLength)
	intent, terms := Detect(message)
	uc.log.Debug().Str("intent", string(intent)).Strs("terms", terms).Msg("intención detectada")

	switch intent {
	case IntentHelp:
		return reply(intent, helpText, nil), nil
	case IntentLowStock:
		return uc.lowStock(ctx)
	case IntentTopProducts:
		return uc.topProducts(ctx)
	case IntentInventoryValue:
		return uc.inventoryValue(ctx)
	case IntentSalesToday:
		return uc.salesToday(ctx)
	case IntentProfit:
		return uc.profit(ctx)
	case IntentPrice, IntentStock:
		return uc.productInfo(ctx, intent, terms)
	}
	return uc.unknown(ctx, message)
}

func reply(intent Intent, text string, data any) *dto.ChatbotResponse {
	return &dto.ChatbotResponse{Intent: string(intent), Reply: text, Data: data}
}

func money(p interface{ StringFixed(int32) string }) string {
	return "$" + p.StringFixed(2)
}

func (uc *UseCase) lowStock(ctx context.Context) (*dto.ChatbotResponse, error) {
	list, err := uc.catalog.ListLowStock(ctx, listLimit*2)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return reply(IntentLowStock, "Ningún producto está en o por debajo de su stock mínimo.", []any{}), nil
	}
	var b strings.Builder
	b.WriteString("Productos con bajo stock:")
	data := make([]map[string]any, 0, len(list))
	for _, p := range list {
		fmt.Fprintf(&b, "\n- %s: %d (mínimo %d)", p.Name, p.Stock, p.MinStock)
		data = append(data, map[string]any{"id": p.ID, "name": p.Name, "stock": p.Stock, "min_stock": p.MinStock})
	}
	return reply(IntentLowStock, b.String(), data), nil
}

func (uc *UseCase) topProducts(ctx context.Context) (*dto.ChatbotResponse, error) {
	r, err := uc.stats.ResolveRange(nil, nil)
	if err != nil {
		return nil, err
	}
	top, err := uc.stats.TopProducts(ctx, r, listLimit, false)
	if err != nil {
		return nil, err
	}
	if len(top.Items) == 0 {
		return reply(IntentTopProducts, "Todavía no hay ventas este mes.", top), nil
	}
	var b strings.Builder
	b.WriteString("Más vendidos del mes:")
	for i, t := range top.Items {
		fmt.Fprintf(&b, "\n%d. %s: %d unidades (%s)", i+1, t.ProductName, t.UnitsSold, money(t.Revenue))
	}
	return reply(IntentTopProducts, b.String(), top), nil
}

func (uc *UseCase) inventoryValue(ctx context.Context) (*dto.ChatbotResponse, error) {
	inv, err := uc.stats.Inventory(ctx, false)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("El inventario tiene %d unidades en %d productos. Valor al costo: %s; valor de venta: %s.",
		inv.TotalUnits, inv.ProductCount, money(inv.CostValue), money(inv.RetailValue))
	return reply(IntentInventoryValue, text, inv), nil
}

func (uc *UseCase) salesToday(ctx context.Context) (*dto.ChatbotResponse, error) {
	sum, err := uc.stats.Summary(ctx, uc.stats.TodayRange(), true)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("Hoy van %d ventas por %s, con una ganancia de %s.",
		sum.SalesCount, money(sum.Revenue), money(sum.Profit))
	return reply(IntentSalesToday, text, sum), nil
}

func (uc *UseCase) profit(ctx context.Context) (*dto.ChatbotResponse, error) {
	r, err := uc.stats.ResolveRange(nil, nil)
	if err != nil {
		return nil, err
	}
	sum, err := uc.stats.Summary(ctx, r, false)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("La ganancia del mes es %s sobre ventas de %s (%d ventas).",
		money(sum.Profit), money(sum.Revenue), sum.SalesCount)
	return reply(IntentProfit, text, sum), nil
}

// findProduct prueba el término completo y luego cada palabra por separado.
func (uc *UseCase) findProduct(ctx context.Context, terms []string) ([]*entity.Product, error) {
	candidates := append([]string{strings.Join(terms, " ")}, terms...)
	for _, term := range candidates {
		list, err := uc.catalog.Search(ctx, term, listLimit)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			return list, nil
		}
	}
	return nil, nil
}

func (uc *UseCase) productInfo(ctx context.Context, intent Intent, terms []string) (*dto.ChatbotResponse, error) {
	if len(terms) == 0 {
		return reply(intent, "¿De qué producto? Escribe su nombre, por ejemplo: \"precio del arroz\".", nil), nil
	}
	list, err := uc.findProduct(ctx, terms)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return reply(intent, fmt.Sprintf("No encontré productos que coincidan con %q.", strings.Join(terms, " ")), nil), nil
	}
	var b strings.Builder
	data := make([]map[string]any, 0, len(list))
	for i, p := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		if intent == IntentPrice {
			fmt.Fprintf(&b, "%s cuesta %s.", p.Name, money(p.Price))
		} else {
			fmt.Fprintf(&b, "Quedan %d unidades de %s.", p.Stock, p.Name)
		}
		data = append(data, map[string]any{"id": p.ID, "name": p.Name, "price": p.Price, "stock": p.Stock})
	}
	return reply(intent, b.String(), data), nil
}

func (uc *UseCase) unknown(ctx context.Context, message string) (*dto.ChatbotResponse, error) {
	if uc.llm == nil {
		return reply(IntentUnknown, "No entendí la pregunta.\n"+helpText, nil), nil
	}
	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	answer, err := uc.llm.Answer(ctx, message, uc.storeContext(ctx))
	if err != nil {
		uc.log.Warn().Err(err).Msg("respaldo LLM fallido")
		return reply(IntentUnknown, "No entendí la pregunta.\n"+helpText, nil), nil
	}
	return reply(IntentUnknown, strings.TrimSpace(answer), nil), nil
}

// storeContext resumen corto del estado de la tienda para el LLM. Errores parciales se omiten.
func (uc *UseCase) storeContext(ctx context.Context) string {
	var b strings.Builder
	if inv, err := uc.stats.Inventory(ctx, false); err == nil {
		fmt.Fprintf(&b, "Inventario: %d productos, %d unidades, valor costo %s, valor venta %s, %d con bajo stock.\n",
			inv.ProductCount, inv.TotalUnits, money(inv.CostValue), money(inv.RetailValue), inv.LowStockCount)
	}
	if r, err := uc.stats.ResolveRange(nil, nil); err == nil {
		if sum, err := uc.stats.Summary(ctx, r, false); err == nil {
			fmt.Fprintf(&b, "Ventas del mes: %d, ingresos %s, ganancia %s.\n", sum.SalesCount, money(sum.Revenue), money(sum.Profit))
		}
		if top, err := uc.stats.TopProducts(ctx, r, listLimit, false); err == nil {
			for _, t := range top.Items {
				fmt.Fprintf(&b, "Top: %s (%d unidades).\n", t.ProductName, t.UnitsSold)
			}
		}
	}
	return b.String()
}

// truncateRunes corta s a n caracteres sin partir una secuencia UTF-8.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
