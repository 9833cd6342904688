package bot

// messageLimit — максимальная длина одного сообщения транспорта.
const messageLimit = 4096

// splitMessage разбивает текст на части длиной не более limit.
// Граница части — последний перенос строки в пределах лимита, иначе последний
// пробел, иначе жёсткий разрез. Поглощённый на границе разделитель и ведущие
// пробельные символы остатка отбрасываются; остальные символы никогда не
// теряются и не дублируются.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := lastIndexRune(runes, limit, '\n')
		if cut < 0 {
			cut = lastIndexRune(runes, limit, ' ')
		}

		var part []rune
		if cut < 0 {
			part = runes[:limit]
			runes = runes[limit:]
		} else {
			part = runes[:cut]
			runes = runes[cut+1:]
		}
		for len(runes) > 0 && (runes[0] == ' ' || runes[0] == '\n') {
			runes = runes[1:]
		}
		if len(part) > 0 {
			parts = append(parts, string(part))
		}
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	if len(parts) == 0 {
		parts = []string{""}
	}
	return parts
}

// lastIndexRune ищет последнее вхождение r на позициях 0..limit включительно.
func lastIndexRune(runes []rune, limit int, r rune) int {
	for i := limit; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
