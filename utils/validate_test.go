package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type historyQuery struct {
	Days int    `query:"days" comment:"天数" validate:"omitempty,min=1,max=365"`
	Date string `query:"date" comment:"日期" validate:"omitempty,datetime=2006-01-02"`
}

type patchBody struct {
	Thresholds *struct {
		CPU *float64 `json:"cpu" validate:"omitempty,gte=0"`
	} `json:"thresholds" validate:"required"`
}

func TestValidate(t *testing.T) {
	msg, err := Validate(&historyQuery{Days: 7, Date: "2024-03-01"})
	assert.NoError(t, err)
	assert.Empty(t, msg)

	msg, err = Validate(&historyQuery{Days: 1000})
	assert.Error(t, err)
	assert.Equal(t, "天数不能大于365", msg)

	msg, err = Validate(&historyQuery{Date: "03/01/2024"})
	assert.Error(t, err)
	assert.Equal(t, "日期格式必须为2006-01-02", msg)
}

func TestValidate_NestedPatch(t *testing.T) {
	msg, err := Validate(&patchBody{})
	assert.Error(t, err)
	assert.Equal(t, "thresholds不能为空", msg)

	neg := -1.0
	body := &patchBody{}
	body.Thresholds = &struct {
		CPU *float64 `json:"cpu" validate:"omitempty,gte=0"`
	}{CPU: &neg}
	msg, err = Validate(body)
	assert.Error(t, err)
	assert.Equal(t, "cpu必须大于或等于0", msg)
}
