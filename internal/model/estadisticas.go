package model

import (
	"time"
)

// EstadoCount is the number of requests in one state
type EstadoCount struct {
	Estado EstadoSolicitud `json:"estado"`
	Total  int64           `json:"total"`
}

// ProductoRanking represents a ranked product based on delivered quantities
type ProductoRanking struct {
	ProductoID    string `json:"producto_id"`
	Nombre        string `json:"nombre"`
	Codigo        string `json:"codigo"`
	TotalCantidad int64  `json:"total_cantidad"`
}

// Estadisticas is the dashboard summary over the requests visible to the caller
type Estadisticas struct {
	TotalSolicitudes       int64                     `json:"total_solicitudes"`
	PorEstado              map[EstadoSolicitud]int64 `json:"por_estado"`
	Pendientes             int64                     `json:"pendientes"`
	EnProceso              int64                     `json:"en_proceso"`
	Entregadas             int64                     `json:"entregadas"`
	Rechazadas             int64                     `json:"rechazadas"`
	InspeccionesPendientes int64                     `json:"inspecciones_pendientes"`
	EntregasAbiertas       int64                     `json:"entregas_abiertas"`
	TopProductosEntregados []ProductoRanking         `json:"top_productos_entregados"`
	Desde                  time.Time                 `json:"desde"`
	Hasta                  time.Time                 `json:"hasta"`
}
