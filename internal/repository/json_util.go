package repository

import (
	"encoding/json"

	"inventory-data/internal/domain"
)

// extensionToJSON 扩展数据落库为 JSONB；nil 按空对象处理
func extensionToJSON(data domain.ExtensionData) ([]byte, error) {
	if data == nil {
		data = domain.ExtensionData{}
	}
	return json.Marshal(data)
}

func extensionFromJSON(raw []byte) (domain.ExtensionData, error) {
	if len(raw) == 0 {
		return domain.ExtensionData{}, nil
	}
	var data domain.ExtensionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// stringsToJSON 字符串列表落库为 JSONB；nil 按空数组处理
func stringsToJSON(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func stringsFromJSON(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func rowErrorsToJSON(items []domain.RowError) ([]byte, error) {
	if items == nil {
		items = []domain.RowError{}
	}
	return json.Marshal(items)
}

func rowErrorsFromJSON(raw []byte) ([]domain.RowError, error) {
	if len(raw) == 0 {
		return []domain.RowError{}, nil
	}
	var items []domain.RowError
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
