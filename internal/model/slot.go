package model

// Slots: фиксированные двухчасовые окна дня в порядке следования.
// Меняются только вместе с кодом: длительность слота не настраивается.
var Slots = []string{"10-12", "12-14", "14-16", "16-18", "18-20", "20-22"}

// SlotIndex возвращает позицию слота в Slots или -1.
func SlotIndex(slot string) int {
	for i, s := range Slots {
		if s == slot {
			return i
		}
	}
	return -1
}

// IsSlot проверяет, что метка входит в набор слотов.
func IsSlot(slot string) bool {
	return SlotIndex(slot) >= 0
}
