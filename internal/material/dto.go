package material

import (
	"errors"
	"strconv"
	"time"

	internalErrors "github.com/frahmantamala/construction-crm/internal"
	"github.com/frahmantamala/construction-crm/internal/core/common/validation"
)

// CreateRequestDTO is the payload for raising a requisition.
type CreateRequestDTO struct {
	ID         string `json:"id" validate:"required"`
	MaterialID string `json:"material_id" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"min=0"`
	UserID     string `json:"user_id"`
	Username   string `json:"username" validate:"required"`
}

func (dto CreateRequestDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("id", dto.ID).Required()
	validator.Field("material_id", dto.MaterialID).Required()
	validator.Field("quantity", dto.Quantity).MinInt(0, internalErrors.ErrCodeInvalidAmount)
	validator.Field("username", dto.Username).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (dto CreateRequestDTO) ToRequest() MaterialRequest {
	return MaterialRequest{
		ID:          dto.ID,
		MaterialID:  dto.MaterialID,
		Quantity:    dto.Quantity,
		UserID:      dto.UserID,
		Username:    dto.Username,
		RequestedAt: time.Now().UnixMilli(),
		Status:      StatusPending,
	}
}

// RespondDTO is the decision payload from the approval workflow.
type RespondDTO struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (dto RespondDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("status", dto.Status).
		Required().
		OneOf(internalErrors.ErrCodeInvalidRequestStatus, StatusApproved, StatusRejected)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdatePriceDTO edits a material's current unit price.
type UpdatePriceDTO struct {
	UnitPriceIDR int64 `json:"unit_price_idr"`
}

func (dto UpdatePriceDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("unit_price_idr", dto.UnitPriceIDR).MinInt(0, internalErrors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CostQuery carries the reporting month and optional username filter of a
// cost report. Month is 1-indexed.
type CostQuery struct {
	Year           int
	Month          int
	UsernameFilter string
}

func ParseCostQuery(yearStr, monthStr, filter string) (CostQuery, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2200 {
		return CostQuery{}, errors.New("year must be a four digit number")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return CostQuery{}, errors.New("month must be between 1 and 12")
	}
	return CostQuery{Year: year, Month: month, UsernameFilter: filter}, nil
}

// CostResponse is the wire shape of the derived cost mapping.
type CostResponse struct {
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	UsernameFilter string     `json:"username_filter,omitempty"`
	CostByUser     CostByUser `json:"cost_by_user"`
}
