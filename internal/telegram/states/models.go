package states

type State string

const (
	StateNone State = "none"
)

// cart -> оформление заказа клиентом
// calc -> калькулятор цены
// rate -> админ задаёт курс юаня

// cart states
const (
	CartWaitFirstItem State = "cart_wt_first_item"
	CartWaitItems     State = "cart_wt_items"
)

// calculator states
const (
	CalcWaitPrice State = "calc_wt_price"
)

// exchange rate states
const (
	RateWaitValue State = "rate_wt_value"
)
