package catalog

// DefaultYAML: справочник, зашитый в бинарник.
const DefaultYAML = `
houses:
  - name: "Небесная 16"
    entrances:
      - {label: "1", range: [1, 20]}
      - {label: "2", range: [21, 40]}
      - {label: "3", range: [41, 60]}
      - {label: "4", range: [61, 80]}
      - {label: "5", range: [81, 100]}
  - name: "Миля 3"
    entrances:
      - {label: "1", range: [1, 54]}
      - {label: "2", range: [56, 89]}
      - {label: "3", range: [91, 124]}
      - {label: "4", range: [126, 165]}
      - {label: "5", range: [167, 196]}
`

// Default разбирает DefaultYAML.
func Default(validate Validator) (*Static, error) {
	return Parse([]byte(DefaultYAML), validate)
}
