package domain

// Customer — клиент с измерениями стопы. В рамках подсистемы заказов
// запись только читается, мутации выполняет внешний CRUD.
type Customer struct {
	ID        string
	PartnerID string
	FirstName string
	LastName  string
	// Длины стопы в миллиметрах, левая и правая.
	FootLengthLeftMM  float64
	FootLengthRightMM float64
	// Ширины стопы в миллиметрах.
	FootWidthLeftMM  float64
	FootWidthRightMM float64
	// ScreeningRef — ссылка на внешний скрининг; при её наличии
	// измерения длины могут отсутствовать.
	ScreeningRef string
}

// HasFootLengths сообщает, заполнены ли обе длины стопы.
func (c *Customer) HasFootLengths() bool {
	return c.FootLengthLeftMM > 0 && c.FootLengthRightMM > 0
}

// MaxFootLengthMM возвращает большую из двух длин стопы.
func (c *Customer) MaxFootLengthMM() float64 {
	if c.FootLengthLeftMM > c.FootLengthRightMM {
		return c.FootLengthLeftMM
	}
	return c.FootLengthRightMM
}

// Partner — владелец магазинов и заказов. Здесь нужен только для
// проверки налоговой конфигурации при страховых способах оплаты.
type Partner struct {
	ID         string
	Name       string
	VATCountry string
}
