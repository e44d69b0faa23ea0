package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cart(prices ...string) []Item {
	items := make([]Item, len(prices))
	for i, p := range prices {
		items[i] = Item{Name: "item", Price: d(p), Quantity: 1}
	}
	return items
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		items   []Item
		want    string
		wantErr error
	}{
		{
			name:  "percentage",
			rule:  Rule{DiscountType: DiscountPercentage, Value: d("10")},
			items: cart("100"),
			want:  "10",
		},
		{
			name:  "percentage rounds to cents",
			rule:  Rule{DiscountType: DiscountPercentage, Value: d("15")},
			items: cart("33.33"),
			want:  "5",
		},
		{
			name:  "fixed",
			rule:  Rule{DiscountType: DiscountFixed, Value: d("9")},
			items: cart("50"),
			want:  "9",
		},
		{
			name:  "fixed capped at subtotal",
			rule:  Rule{DiscountType: DiscountFixed, Value: d("9")},
			items: cart("5"),
			want:  "5",
		},
		{
			name:  "free lowest item",
			rule:  Rule{DiscountType: DiscountFreeLowest},
			items: cart("30", "12.50", "45"),
			want:  "12.50",
		},
		{
			name:  "free lowest with empty cart",
			rule:  Rule{DiscountType: DiscountFreeLowest},
			items: nil,
			want:  "0",
		},
		{
			name:  "max discount cap",
			rule:  Rule{DiscountType: DiscountPercentage, Value: d("50"), MaxDiscount: d("20")},
			items: cart("100"),
			want:  "20",
		},
		{
			name: "min items not met",
			rule: Rule{DiscountType: DiscountPercentage, Value: d("10"), MinItems: 3},
			items: []Item{
				{Name: "a", Price: d("10"), Quantity: 2},
			},
			wantErr: ErrInvalidCoupon,
		},
		{
			name: "min items counts quantities",
			rule: Rule{DiscountType: DiscountPercentage, Value: d("10"), MinItems: 3},
			items: []Item{
				{Name: "a", Price: d("10"), Quantity: 3},
			},
			want: "3",
		},
		{
			name:    "unsupported type",
			rule:    Rule{DiscountType: "bogus"},
			items:   cart("10"),
			wantErr: nil, // checked separately below
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(&tt.rule, tt.items)

			if tt.rule.DiscountType == "bogus" {
				require.Error(t, err)
				return
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Amount.Equal(d(tt.want)), "amount = %s, want %s", got.Amount, tt.want)
		})
	}
}
