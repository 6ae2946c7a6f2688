package catalog

// #region builtin
// builtinPlaybooks returns the library in priority order. Order matters:
// it is the ranking tie-breaker.
func builtinPlaybooks() []Playbook {
	return []Playbook{
		{
			ID:           "qos_traffic_shaping",
			Name:         "QoS Traffic Shaping",
			Description:  "Apply QoS policies to prioritize critical traffic and limit bulk data during congestion",
			Kind:         "qos_shaping",
			RootCauses:   []string{"congestion", "high_latency", "packet_loss"},
			RiskLevel:    RiskLow,
			TimeToEffect: "10 minutes",
			EtaMinutes:   10,
			Cost:         CostFree,
			LatencyReduction: 0.60,
			LossReduction:    0.70,
			EstimatedImpact:  "Reduce latency by 50-70%, packet loss by 60-80%",
			Prerequisites: []string{
				"Admin access to router",
				"QoS policies defined",
			},
			CommandsTemplate: `# QoS traffic shaping for {hot_path}
ssh admin@{router_source}
copy running-config backup-{timestamp}.cfg
configure terminal
interface {interface_id}
  service-policy output QOS_PEAK_HOURS
  bandwidth percent 60
  priority-queue out
end
write memory
show policy-map interface {interface_id}
# Expected: latency {current_latency}ms -> ~{expected_latency}ms`,
			VerificationSteps: []string{
				"Check QoS policy is applied: show policy-map interface",
				"Monitor latency for 10 minutes, expect 50-70% reduction",
				"Verify no new errors: show interface errors",
			},
			RollbackProcedure: `ssh admin@{router_source}
configure terminal
interface {interface_id}
  no service-policy output
end
write memory`,
			WhenToUse:    "Peak hour congestion with mixed traffic types, utilization above 70%.",
			WhenNotToUse: "Hardware failures, configuration errors, routing issues.",
			SuccessIndicators: []string{
				"Latency drops by >50% within 10 minutes",
				"Packet loss drops by >60% within 10 minutes",
			},
			TypicalSuccessRate: 0.85,
		},
		{
			ID:           "partial_traffic_offload",
			Name:         "Partial Traffic Offload",
			Description:  "Redistribute a portion of traffic to an alternate path to relieve congestion immediately",
			Kind:         "partial_offload",
			RootCauses:   []string{"congestion", "high_latency"},
			RiskLevel:    RiskMedium,
			TimeToEffect: "2 minutes",
			EtaMinutes:   2,
			Cost:         CostFree,
			LatencyReduction: 0.78,
			LossReduction:    0.88,
			EstimatedImpact:  "Reduce latency by 70-85%, packet loss by 80-95%",
			Prerequisites: []string{
				"Alternate path available with spare capacity",
				"Routing protocol supports redistribution",
			},
			CommandsTemplate: `# Partial traffic offload for {hot_path}
ssh admin@{router_source}
configure terminal
ip route 0.0.0.0 0.0.0.0 {alternate_next_hop} 50
router ospf 1
  maximum-paths 4
end
write memory
show ip route summary`,
			VerificationSteps: []string{
				"Confirm traffic split across paths: show ip cef exact-route",
				"Monitor latency for 2 minutes, expect >70% reduction",
				"Watch for packet reordering complaints",
			},
			RollbackProcedure: `ssh admin@{router_source}
configure terminal
no ip route 0.0.0.0 0.0.0.0 {alternate_next_hop} 50
end
write memory`,
			WhenToUse:    "Severe congestion needing immediate relief with a healthy alternate path.",
			WhenNotToUse: "No alternate path, or the alternate is already congested.",
			SuccessIndicators: []string{
				"Latency drops by >70% within 2 minutes",
				"Traffic evenly distributed across paths",
			},
			TypicalSuccessRate: 0.78,
		},
		{
			ID:           "config_rollback",
			Name:         "Configuration Rollback",
			Description:  "Revert the recent configuration change that caused the incident",
			Kind:         "config_rollback",
			RootCauses:   []string{"config_change", "config_regression", "routing_issue", "degradation_after_change"},
			RiskLevel:    RiskLow,
			TimeToEffect: "1 minute",
			EtaMinutes:   1,
			Cost:         CostFree,
			LatencyReduction: 1.0,
			LossReduction:    1.0,
			EstimatedImpact:  "Full restoration if the config change was the root cause",
			Prerequisites: []string{
				"Recent config change identified",
				"Backup configuration available",
			},
			CommandsTemplate: `# Configuration rollback for {hot_path}
ssh admin@{router_source}
show archive config differences nvram:startup-config system:running-config
configure replace {backup_config_path} force
show ip route
# Expected: latency back to {expected_latency}ms`,
			VerificationSteps: []string{
				"Confirm configuration matches pre-change state",
				"Monitor latency, expect return to baseline within 1-2 minutes",
				"Verify all expected routes are present",
			},
			RollbackProcedure: `# Re-apply the change if rollback causes issues:
configure replace {original_config_path} force`,
			WhenToUse:    "Incident started immediately after a configuration change with clear correlation.",
			WhenNotToUse: "Multiple overlapping changes, or the change was required for security.",
			SuccessIndicators: []string{
				"Metrics return to baseline within 1-2 minutes",
				"Routing table restored to pre-change state",
			},
			TypicalSuccessRate: 0.92,
		},
		{
			ID:           "hardware_diagnostics_replace",
			Name:         "Hardware Diagnostics & Replacement",
			Description:  "Run diagnostics on suspect hardware and fail over or replace the faulty component",
			Kind:         "hardware_replace",
			RootCauses:   []string{"hardware_failure", "interface_errors", "line_card_failure"},
			RiskLevel:    RiskHigh,
			TimeToEffect: "30 minutes",
			EtaMinutes:   30,
			Cost:         CostHigh,
			LatencyReduction: 1.0,
			LossReduction:    1.0,
			EstimatedImpact:  "Full restoration if hardware is replaceable or failover works",
			Prerequisites: []string{
				"Spare hardware or redundant line card available",
				"Maintenance window or emergency change approval",
			},
			CommandsTemplate: `# Hardware diagnostics for {hot_path}
ssh admin@{router_source}
show interface {interface_id} | include error|CRC
show diagnostic result module all
# If faulty, fail over:
redundancy force-switchover`,
			VerificationSteps: []string{
				"Error counters stop incrementing on the replacement interface",
				"Loss returns to baseline after failover",
			},
			RollbackProcedure: `# Revert failover:
redundancy force-switchover`,
			WhenToUse:    "CRC/interface errors with low utilization pointing at failing hardware.",
			WhenNotToUse: "Traffic-related degradation; replacement is disruptive and slow.",
			SuccessIndicators: []string{
				"Interface error counters flat after replacement",
				"Loss back to baseline",
			},
			TypicalSuccessRate: 0.88,
		},
		{
			ID:           "route_redistribution",
			Name:         "Route Redistribution & Path Optimization",
			Description:  "Rebalance routing metrics to move traffic onto the optimal path",
			Kind:         "route_redistribution",
			RootCauses:   []string{"routing_issue", "suboptimal_path", "route_flap"},
			RiskLevel:    RiskMedium,
			TimeToEffect: "2-5 minutes",
			EtaMinutes:   2,
			Cost:         CostFree,
			LatencyReduction: 0.50,
			LossReduction:    0.40,
			EstimatedImpact:  "Optimal path restoration, latency reduction by 40-60%",
			Prerequisites: []string{
				"Current and desired paths identified",
				"IGP metric change approved",
			},
			CommandsTemplate: `# Route redistribution for {hot_path}
ssh admin@{router_source}
configure terminal
interface {interface_id}
  ip ospf cost 10
end
write memory
show ip ospf interface brief`,
			VerificationSteps: []string{
				"Traffic shifts to intended path: traceroute through {hot_path}",
				"Latency reduction within 5 minutes",
			},
			RollbackProcedure: `ssh admin@{router_source}
configure terminal
interface {interface_id}
  no ip ospf cost
end
write memory`,
			WhenToUse:    "High latency with moderate utilization and evidence of a suboptimal path.",
			WhenNotToUse: "During route flaps; changing metrics mid-flap worsens churn.",
			SuccessIndicators: []string{
				"Traceroute shows intended path",
				"Latency drops by >40%",
			},
			TypicalSuccessRate: 0.81,
		},
		{
			ID:           "emergency_capacity_upgrade",
			Name:         "Emergency Capacity Upgrade",
			Description:  "Purchase burst capacity from the provider to relieve persistent congestion",
			Kind:         "burst_capacity",
			RootCauses:   []string{"persistent_congestion", "capacity_exhaustion", "congestion"},
			RiskLevel:    RiskHigh,
			TimeToEffect: "30 minutes",
			EtaMinutes:   30,
			Cost:         CostHigh,
			CostRateEUR:  350,
			LatencyReduction: 1.0,
			LossReduction:    1.0,
			EstimatedImpact:  "Full congestion relief, latency normalized, loss eliminated",
			Prerequisites: []string{
				"Provider burst contract in place",
				"Budget approval for hourly burst rate",
			},
			CommandsTemplate: `# Emergency capacity upgrade for {hot_path}
# Provider portal: order burst capacity on {hot_path}
ssh admin@{router_source}
configure terminal
interface {interface_id}
  bandwidth {new_bandwidth}
end
write memory`,
			VerificationSteps: []string{
				"Provider confirms burst activation",
				"Utilization drops below 70% on {hot_path}",
			},
			RollbackProcedure: `# Cancel burst order via provider portal; restore bandwidth statement.`,
			WhenToUse:    "Persistent congestion that shaping and offload cannot absorb.",
			WhenNotToUse: "Short traffic spikes; the hourly cost outlasts the spike.",
			SuccessIndicators: []string{
				"Utilization below 70% within the activation window",
				"Latency and loss at baseline",
			},
			TypicalSuccessRate: 0.95,
		},
	}
}

// #endregion builtin
