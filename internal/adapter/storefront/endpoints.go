package storefront

import (
	"fmt"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// purchaseEndpoints — набор адресов покупки для пары игра/регион.
type purchaseEndpoints struct {
	Landing   string
	CheckRole string
	Query     string
	Pay       string
	OrderList string
}

func purchaseEndpointsFor(base string, game domain.Game, region domain.Region) (purchaseEndpoints, error) {
	switch {
	case game == domain.GameMLBB && region == domain.RegionBR:
		return purchaseEndpoints{
			Landing:   base + "/merchant/mobilelegends",
			CheckRole: base + "/merchant/mobilelegends/checkrole",
			Query:     base + "/merchant/mobilelegends/query",
			Pay:       base + "/merchant/mobilelegends/pay",
			OrderList: base + "/customer/activationcode/codelist",
		}, nil
	case game == domain.GameMLBB && region == domain.RegionPH:
		return purchaseEndpoints{
			Landing:   base + "/ph/merchant/mobilelegends",
			CheckRole: base + "/ph/merchant/mobilelegends/checkrole",
			Query:     base + "/ph/merchant/mobilelegends/query",
			Pay:       base + "/ph/merchant/mobilelegends/pay",
			OrderList: base + "/ph/customer/activationcode/codelist",
		}, nil
	case game == domain.GameMCC && region == domain.RegionBR:
		return purchaseEndpoints{
			Landing:   base + "/br/merchant/game/magicchessgogo",
			CheckRole: base + "/br/merchant/game/checkrole",
			Query:     base + "/br/merchant/game/query",
			Pay:       base + "/br/merchant/game/pay",
			OrderList: base + "/br/customer/activationcode/codelist",
		}, nil
	}
	return purchaseEndpoints{}, fmt.Errorf("%w: no storefront for game %q in region %s", domain.ErrValidation, game, region)
}

type redeemEndpoints struct {
	Page     string
	Check    string
	Pay      string
	Referer  string
	Balances string
}

func redeemEndpointsFor(base string, region domain.Region) redeemEndpoints {
	if region == domain.RegionPH {
		return redeemEndpoints{
			Page:     base + "/ph/customer/activationcode",
			Check:    base + "/ph/smilecard/pay/checkcard",
			Pay:      base + "/ph/smilecard/pay/payajax",
			Referer:  base + "/ph/",
			Balances: base + "/ph/customer/order",
		}
	}
	return redeemEndpoints{
		Page:     base + "/customer/activationcode",
		Check:    base + "/smilecard/pay/checkcard",
		Pay:      base + "/smilecard/pay/payajax",
		Referer:  base + "/",
		Balances: base + "/customer/order",
	}
}

func overviewURL(base string) string { return base + "/customer/order" }
