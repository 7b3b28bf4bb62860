package parser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"stockmate/internal/model"
)

const (
	// excelUnixEpochSerial Excel 序列日期中 1970-01-01 对应的天数
	excelUnixEpochSerial = 25569
	// twoDigitYearPivot 两位年份分界：小于该值为 20YY，否则为 19YY
	twoDigitYearPivot = 50

	// time.Time 可表示的 0001-01-01 ~ 9999-12-31 相对 1970-01-01 的天数
	minEpochDays = -719162
	maxEpochDays = 2932896

	isoLayout = "2006-01-02"
)

// NormalizeDate 将单元格值转为 YYYY-MM-DD；无法识别时返回 nil，不报错
//
// 支持：YYYY-MM-DD、DD/MM/YYYY、DD/MM/YY（两位年份以 50 为界）、Excel 序列日期（数值）。
func NormalizeDate(v any) *string {
	switch x := v.(type) {
	case nil, bool:
		return nil
	case float64:
		return serialToISO(x)
	case int:
		return serialToISO(float64(x))
	case int64:
		return serialToISO(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return serialToISO(f)
	case string:
		return parseDateString(strings.TrimSpace(x))
	default:
		return parseDateString(cellString(v))
	}
}

func parseDateString(s string) *string {
	if s == "" {
		return nil
	}
	if isoDateRe.MatchString(s) {
		return &s
	}
	if !strings.Contains(s, "/") {
		return nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return nil
	}
	day, month, year := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if !digitsRe.MatchString(day) || !digitsRe.MatchString(month) || !digitsRe.MatchString(year) {
		return nil
	}
	if len(day) > 2 || len(month) > 2 {
		return nil
	}

	switch len(year) {
	case 2:
		yy, _ := strconv.Atoi(year)
		if yy < twoDigitYearPivot {
			year = "20" + year
		} else {
			year = "19" + year
		}
	case 4:
	default:
		return nil
	}

	iso := year + "-" + padTwo(month) + "-" + padTwo(day)
	if _, err := time.Parse(isoLayout, iso); err != nil {
		return nil
	}
	return &iso
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// serialToISO Excel 序列日期转 ISO 日期（忽略时间部分）
func serialToISO(serial float64) *string {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}
	days := math.Floor(serial - excelUnixEpochSerial)
	if days < minEpochDays || days > maxEpochDays {
		return nil
	}
	epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	iso := epoch.AddDate(0, 0, int(days)).Format(isoLayout)
	return &iso
}

// 设备类型同义词表（键为 foldKey 之后的值）
var equipmentSynonyms = map[string]model.EquipmentType{
	"pc portable":              model.EquipmentLaptop,
	"portable":                 model.EquipmentLaptop,
	"ordinateur portable":      model.EquipmentLaptop,
	"laptop":                   model.EquipmentLaptop,
	"notebook":                 model.EquipmentLaptop,
	"macbook":                  model.EquipmentLaptop,
	"pc fixe":                  model.EquipmentDesktop,
	"ordinateur fixe":          model.EquipmentDesktop,
	"ordinateur":               model.EquipmentDesktop,
	"unite centrale":           model.EquipmentDesktop,
	"uc":                       model.EquipmentDesktop,
	"tour":                     model.EquipmentDesktop,
	"desktop":                  model.EquipmentDesktop,
	"ecran pc":                 model.EquipmentMonitor,
	"ecran":                    model.EquipmentMonitor,
	"moniteur":                 model.EquipmentMonitor,
	"monitor":                  model.EquipmentMonitor,
	"imprimante":               model.EquipmentPrinter,
	"imprimante laser":         model.EquipmentPrinter,
	"imprimante multifonction": model.EquipmentPrinter,
	"copieur":                  model.EquipmentPrinter,
	"printer":                  model.EquipmentPrinter,
	"scanner":                  model.EquipmentScanner,
	"scanette":                 model.EquipmentScanner,
	"douchette":                model.EquipmentScanner,
	"telephone":                model.EquipmentPhone,
	"telephone portable":       model.EquipmentPhone,
	"smartphone":               model.EquipmentPhone,
	"mobile":                   model.EquipmentPhone,
	"iphone":                   model.EquipmentPhone,
	"tablette":                 model.EquipmentTablet,
	"ipad":                     model.EquipmentTablet,
	"tablet":                   model.EquipmentTablet,
	"clavier":                  model.EquipmentKeyboard,
	"keyboard":                 model.EquipmentKeyboard,
	"souris":                   model.EquipmentMouse,
	"mouse":                    model.EquipmentMouse,
	"casque":                   model.EquipmentHeadset,
	"micro casque":             model.EquipmentHeadset,
	"headset":                  model.EquipmentHeadset,
	"webcam":                   model.EquipmentWebcam,
	"camera":                   model.EquipmentWebcam,
	"station d'accueil":        model.EquipmentDockingStation,
	"station accueil":          model.EquipmentDockingStation,
	"dock":                     model.EquipmentDockingStation,
	"docking station":          model.EquipmentDockingStation,
	"serveur":                  model.EquipmentServer,
	"server":                   model.EquipmentServer,
	"nas":                      model.EquipmentServer,
	"switch":                   model.EquipmentNetwork,
	"routeur":                  model.EquipmentNetwork,
	"borne wifi":               model.EquipmentNetwork,
	"reseau":                   model.EquipmentNetwork,
	"materiel reseau":          model.EquipmentNetwork,
	"videoprojecteur":          model.EquipmentProjector,
	"video projecteur":         model.EquipmentProjector,
	"projecteur":               model.EquipmentProjector,
	"onduleur":                 model.EquipmentUPS,
	"ups":                      model.EquipmentUPS,
	"disque dur":               model.EquipmentStorage,
	"disque dur externe":       model.EquipmentStorage,
	"disque externe":           model.EquipmentStorage,
	"ssd":                      model.EquipmentStorage,
	"hdd":                      model.EquipmentStorage,
	"accessoire":               model.EquipmentAccessory,
	"cable":                    model.EquipmentAccessory,
	"chargeur":                 model.EquipmentAccessory,
	"adaptateur":               model.EquipmentAccessory,
	"autre":                    model.EquipmentOther,
	"divers":                   model.EquipmentOther,
}

// NormalizeEquipmentType 设备类型规范化；空值或无法识别时返回 pc_portable
func NormalizeEquipmentType(v any) model.EquipmentType {
	raw := strings.ToLower(cellString(v))
	if raw == "" {
		return model.DefaultEquipmentType
	}
	if t := model.EquipmentType(raw); t.Valid() {
		return t
	}
	if t, ok := equipmentSynonyms[foldKey(raw)]; ok {
		return t
	}
	return model.DefaultEquipmentType
}

// NormalizeBoolean true / 1 / "true" / "1" / "oui" 为真，其余（含 nil、"NaN"）为假
func NormalizeBoolean(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x == 1
	case int:
		return x == 1
	case int64:
		return x == 1
	case json.Number:
		return x.String() == "1"
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "oui":
			return true
		}
	}
	return false
}

// NormalizeText 文本字段：去空白，空值与占位符（NaN/null/undefined）视为空串
func NormalizeText(v any) string {
	s := cellString(v)
	if emptySentinels[strings.ToLower(s)] {
		return ""
	}
	return s
}

// NormalizeOptionalText 可空文本字段
func NormalizeOptionalText(v any) *string {
	s := NormalizeText(v)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizePrice 价格：空或非数字为 nil（不是 0），负数视为无效
func NormalizePrice(v any) *float64 {
	f, ok := parseNumber(v)
	if !ok || f < 0 {
		return nil
	}
	return &f
}

// NormalizeDuration 使用月数：正整数；"0" 是源数据的“不适用”标记，按缺失处理
func NormalizeDuration(v any) *int {
	f, ok := parseNumber(v)
	if !ok {
		return nil
	}
	n := int(math.Trunc(f))
	if n <= 0 {
		return nil
	}
	return &n
}

// 状态同义词表
var statusSynonyms = map[string]model.ProductStatus{
	"en stock":       model.StatusInStock,
	"stock":          model.StatusInStock,
	"disponible":     model.StatusInStock,
	"sav":            model.StatusRepair,
	"en sav":         model.StatusRepair,
	"reparation":     model.StatusRepair,
	"en reparation":  model.StatusRepair,
	"en utilisation": model.StatusInUse,
	"utilisation":    model.StatusInUse,
	"utilise":        model.StatusInUse,
	"attribue":       model.StatusInUse,
	"en service":     model.StatusInUse,
	"hs":             model.StatusBroken,
	"hors service":   model.StatusBroken,
	"casse":          model.StatusBroken,
	"rebut":          model.StatusBroken,
}

// NormalizeStatus 状态规范化；无法识别时为 EN_STOCK
func NormalizeStatus(v any) model.ProductStatus {
	raw := cellString(v)
	if raw == "" {
		return model.StatusInStock
	}
	if s := model.ProductStatus(strings.ToUpper(raw)); s.Valid() {
		return s
	}
	if s, ok := statusSynonyms[foldKey(raw)]; ok {
		return s
	}
	return model.StatusInStock
}
