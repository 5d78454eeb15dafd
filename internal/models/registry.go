// Package models управляет каталогом и загрузкой моделей Voxtral.
package models

import "strings"

// ModelInfo информация о модели.
type ModelInfo struct {
	ID          string // Уникальный идентификатор: "voxtral-mini-3b-q4_k_m"
	Name        string // Отображаемое имя: "Q4_K_M"
	Filename    string // Имя файла: "mistralai_Voxtral-Mini-3B-2507-Q4_K_M.gguf"
	SizeLabel   string // Размер для отображения: "2.47GB"
	Size        int64  // Ожидаемый размер в байтах (для прогресса, если сервер не отдал Content-Length)
	Recommended bool
}

// ModelOption - запись каталога с локальным состоянием.
type ModelOption struct {
	ModelInfo
	Downloaded bool
	LocalPath  string
}

// Registry все доступные модели.
var Registry = []ModelInfo{
	{
		ID:        "voxtral-mini-3b-q4_k_s",
		Name:      "Q4_K_S",
		Filename:  "mistralai_Voxtral-Mini-3B-2507-Q4_K_S.gguf",
		SizeLabel: "2.38GB",
		Size:      2380 * 1000 * 1000,
	},
	{
		ID:          "voxtral-mini-3b-q4_k_m",
		Name:        "Q4_K_M",
		Filename:    "mistralai_Voxtral-Mini-3B-2507-Q4_K_M.gguf",
		SizeLabel:   "2.47GB",
		Size:        2470 * 1000 * 1000,
		Recommended: true,
	},
	{
		ID:        "voxtral-mini-3b-q5_k_m",
		Name:      "Q5_K_M",
		Filename:  "mistralai_Voxtral-Mini-3B-2507-Q5_K_M.gguf",
		SizeLabel: "2.87GB",
		Size:      2870 * 1000 * 1000,
	},
}

// DefaultModelID возвращает рекомендуемую модель.
func DefaultModelID() string {
	for _, m := range Registry {
		if m.Recommended {
			return m.ID
		}
	}
	return Registry[0].ID
}

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// URL собирает адрес файла модели: базовый URL + имя файла.
func URL(baseURL string, info ModelInfo) string {
	return strings.TrimRight(baseURL, "/") + "/" + info.Filename
}
