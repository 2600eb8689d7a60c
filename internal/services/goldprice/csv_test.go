package goldprice

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const investingCSV = `"Date","Price","Open","High","Low","Vol.","Change %"
"25/12/2020","1,883.20","1,878.10","1,886.00","1,874.50","12.3K","0.25%"
"24/12/2020","1,878.50","1,872.00","1,882.90","1,868.20","98.1K","0.42%"
"31/02/2020","1,600.00","1,600.00","1,600.00","1,600.00","1K","0.00%"
"23/12/2020","n/a","1,870.00","1,875.00","1,860.00","","-0.1%"
`

func TestParseCSV_QuotedWithThousands(t *testing.T) {
	records, stats, err := ParseCSV(strings.NewReader(investingCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 2, stats.Dropped, "invalid date and unparseable price are dropped")
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "25/12/2020", first.DisplayDate)
	assert.Equal(t, day(2020, 12, 25), first.Date)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("1883.20")))
	assert.True(t, first.Low.Equal(decimal.RequireFromString("1874.50")))
	assert.Equal(t, "12.3K", first.Volume)
}

func TestParseCSV_SemicolonNoVolume(t *testing.T) {
	data := "Date;Price;Open;High;Low\n1/2/2021;1850.5;1840;1860;1835\n\n2/2/2021;1836;1850;1851;1830\n"

	records, stats, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Rows)
	require.Len(t, records, 2)
	assert.Equal(t, day(2021, 2, 1), records[0].Date)
	assert.Equal(t, "N/A", records[0].Volume)
}

func TestParseCSV_TabAndByteOrderMark(t *testing.T) {
	data := "\ufeffdate\tPRICE\topen\thigh\tlow\tvolume\n05/01/2021\t1950\t1940\t1960\t1930\t100\n"

	records, _, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, day(2021, 1, 5), records[0].Date)
	assert.Equal(t, "100", records[0].Volume)
}

func TestParseCSV_MissingColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("Date,Price,Open\n01/01/2020,1,1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestParseCSV_Empty(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("  \n"))
	assert.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1;2")))
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,2,3,4,5")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb")))
	assert.Equal(t, '|', sniffDelimiter([]byte("a|b|c")))
	assert.Equal(t, ',', sniffDelimiter([]byte("single")))
}
