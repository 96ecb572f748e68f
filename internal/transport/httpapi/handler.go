// Package httpapi содержит HTTP-обработчики сервиса заказов.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/order"
)

// OrderCreator — часть координатора, нужная HTTP-слою.
type OrderCreator interface {
	Create(ctx context.Context, req order.CreateRequest) (order.CreateResult, error)
}

// Handler обрабатывает запросы API заказов.
type Handler struct {
	creator OrderCreator
	orders  domain.OrderRepository
	logger  *log.Entry
}

// NewHandler создаёт HTTP-обработчик поверх координатора и репозитория.
func NewHandler(creator OrderCreator, orders domain.OrderRepository, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	return &Handler{creator: creator, orders: orders, logger: logger}
}

// Routes возвращает mux со всеми маршрутами API.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	return mux
}

type createOrderRequest struct {
	PartnerID       string              `json:"partnerId"`
	CustomerID      string              `json:"customerId"`
	VersorgungID    string              `json:"versorgungId"`
	ShadowSupplyKey string              `json:"shadowSupplyKey"`
	PaymentMethod   string              `json:"paymentMethod"`
	Quantity        int                 `json:"quantity"`
	DiscountPercent float64             `json:"discountPercent"`
	Insurance       []insuranceItemDTO  `json:"insurance"`
	InsoleStandards []insoleStandardDTO `json:"insoleStandards"`
	EmployeeID      string              `json:"employeeId"`
	StoreLocation   string              `json:"storeLocation"`
	ScreeningRef    string              `json:"screeningRef"`
}

type insuranceItemDTO struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type insoleStandardDTO struct {
	Name  string `json:"name"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type createOrderResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId"`
	OrderNumber int64  `json:"orderNumber"`
	MatchedSize string `json:"matchedSize,omitempty"`
	SupplyType  string `json:"supplyType"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var dto createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body"})
		return
	}

	req := order.CreateRequest{
		PartnerID:       dto.PartnerID,
		CustomerID:      dto.CustomerID,
		SupplyID:        dto.VersorgungID,
		ShadowKey:       dto.ShadowSupplyKey,
		PaymentMethod:   dto.PaymentMethod,
		Quantity:        dto.Quantity,
		DiscountPercent: dto.DiscountPercent,
		EmployeeID:      dto.EmployeeID,
		StoreLocation:   dto.StoreLocation,
		ScreeningRef:    dto.ScreeningRef,
	}
	for _, item := range dto.Insurance {
		req.Insurance = append(req.Insurance, order.InsuranceInput{
			Description: item.Description,
			Price:       item.Price,
		})
	}
	for _, std := range dto.InsoleStandards {
		req.InsoleStandards = append(req.InsoleStandards, order.InsoleStandardInput{
			Name:  std.Name,
			Left:  std.Left,
			Right: std.Right,
		})
	}

	result, err := h.creator.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Success:     true,
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		MatchedSize: result.MatchedSize,
		SupplyType:  string(result.SupplyType),
	})
}

type orderDTO struct {
	ID              string  `json:"id"`
	Number          int64   `json:"number"`
	Kind            string  `json:"kind"`
	PartnerID       string  `json:"partnerId"`
	CustomerID      string  `json:"customerId"`
	SupplyID        string  `json:"supplyId"`
	StoreID         string  `json:"storeId,omitempty"`
	SizeLabel       string  `json:"sizeLabel,omitempty"`
	Quantity        int     `json:"quantity"`
	DiscountPercent float64 `json:"discountPercent"`
	TotalPrice      string  `json:"totalPrice"`
	PaymentMethod   string  `json:"paymentMethod"`
	EmployeeID      string  `json:"employeeId,omitempty"`
	StoreLocation   string  `json:"storeLocation,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.orders.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderDTO{
		ID:              ord.ID,
		Number:          ord.Number,
		Kind:            string(ord.Kind),
		PartnerID:       ord.PartnerID,
		CustomerID:      ord.CustomerID,
		SupplyID:        ord.SupplyID,
		StoreID:         ord.StoreID,
		SizeLabel:       ord.SizeLabel,
		Quantity:        ord.Quantity,
		DiscountPercent: ord.DiscountPercent,
		TotalPrice:      ord.TotalPrice.StringFixed(2),
		PaymentMethod:   string(ord.PaymentMethod),
		EmployeeID:      ord.EmployeeID,
		StoreLocation:   ord.StoreLocation,
		CreatedAt:       ord.CreatedAt.Format(time.RFC3339),
	})
}

// writeError переводит доменную ошибку в HTTP-статус: валидация,
// конфликты подбора и конфликты хранилища — 400, отсутствие сущностей —
// 404, всё остальное — 500 с текстом исходной ошибки.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err), domain.IsSizingConflict(err), domain.IsPersistenceConflict(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, context.Canceled):
		// Клиент ушёл; ответ уже никому не нужен.
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	default:
		h.logger.WithError(err).Error("order request failed unexpectedly")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message: "internal error: " + err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
