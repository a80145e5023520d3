package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

var (
	validate     *validator.Validate
	translator   ut.Translator
	validateOnce sync.Once
)

// 覆盖默认翻译，数值类规则按取值描述
var messages = map[string]string{
	"required": "不能为空",
	"min":      "不能小于%s",
	"max":      "不能大于%s",
	"gte":      "必须大于或等于%s",
	"lte":      "必须小于或等于%s",
	"datetime": "格式必须为%s",
}

func newValidator() (*validator.Validate, ut.Translator) {
	v := validator.New()

	// 字段名优先取 comment 标签，其次 json / query
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"comment", "json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	zhTrans := zh.New()
	trans, _ := ut.New(zhTrans, zhTrans).GetTranslator("zh")
	_ = zh_translations.RegisterDefaultTranslations(v, trans)

	for tag, msg := range messages {
		tag, msg := tag, msg
		_ = v.RegisterTranslation(tag, trans, func(t ut.Translator) error {
			return t.Add(tag, msg, true)
		}, func(_ ut.Translator, fe validator.FieldError) string {
			if strings.Contains(msg, "%s") {
				return fe.Field() + fmt.Sprintf(msg, fe.Param())
			}
			return fe.Field() + msg
		})
	}
	return v, trans
}

// Validate 校验结构体，返回拼接后的中文错误信息
func Validate(data interface{}) (string, error) {
	validateOnce.Do(func() {
		validate, translator = newValidator()
	})

	err := validate.Struct(data)
	if err == nil {
		return "", nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error(), err
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Translate(translator))
	}
	return strings.Join(msgs, "; "), err
}
