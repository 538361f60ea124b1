package calibration

// DefaultPoints are the milestones observed on the ledger up to height
// 1,500,000.
var DefaultPoints = []Point{
	{Height: 0, Timestamp: 1528475134},
	{Height: 1000, Timestamp: 1528608834},
	{Height: 5000, Timestamp: 1529094434},
	{Height: 10000, Timestamp: 1529688934},
	{Height: 50000, Timestamp: 1534500934},
	{Height: 100000, Timestamp: 1540480934},
	{Height: 150000, Timestamp: 1546620934},
	{Height: 200000, Timestamp: 1552825934},
	{Height: 250000, Timestamp: 1559150934},
	{Height: 300000, Timestamp: 1565565934},
	{Height: 350000, Timestamp: 1571960934},
	{Height: 400000, Timestamp: 1578420934},
	{Height: 450000, Timestamp: 1584940934},
	{Height: 500000, Timestamp: 1591490934},
	{Height: 550000, Timestamp: 1597970934},
	{Height: 600000, Timestamp: 1604410934},
	{Height: 650000, Timestamp: 1610780934},
	{Height: 700000, Timestamp: 1617125934},
	{Height: 750000, Timestamp: 1623530934},
	{Height: 800000, Timestamp: 1630005934},
	{Height: 850000, Timestamp: 1636515934},
	{Height: 900000, Timestamp: 1643100934},
	{Height: 950000, Timestamp: 1649530934},
	{Height: 1000000, Timestamp: 1655895934},
	{Height: 1100000, Timestamp: 1668785934},
	{Height: 1200000, Timestamp: 1681765934},
	{Height: 1300000, Timestamp: 1694825934},
	{Height: 1400000, Timestamp: 1707945934},
	{Height: 1500000, Timestamp: 1720955934},
}

// Default returns a table built from DefaultPoints.
func Default(opts ...Option) *Table {
	return MustNewTable(DefaultPoints, opts...)
}
